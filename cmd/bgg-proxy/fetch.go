package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/Sternrassler/bgg-xml-client/pkg/bgg"
	"github.com/Sternrassler/bgg-xml-client/pkg/fanout"
	"github.com/spf13/cobra"
)

func newFetchCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch one resource and print it as JSON",
	}
	cmd.AddCommand(
		newFetchPlaysCmd(root),
		newFetchThingCmd(root),
		newFetchSitemapCmd(root),
	)
	return cmd
}

func newFetchPlaysCmd(root *rootOptions) *cobra.Command {
	var toPage int
	cmd := &cobra.Command{
		Use:   "plays <username>",
		Short: "Fetch all logged plays of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(root)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			res := a.api.Plays(cmd.Context(), bgg.PlaysQuery{Username: args[0]}, toPage)
			if !res.OK() {
				return res.Err
			}
			for _, f := range res.Failures {
				a.logger.Warn().Err(f.Err).Int("page", f.Page).Msg("Page skipped")
			}
			return printJSON(cmd.OutOrStdout(), res.Value)
		},
	}
	cmd.Flags().IntVar(&toPage, "to-page", 0, "last page to fetch (0 for all)")
	return cmd
}

func newFetchThingCmd(root *rootOptions) *cobra.Command {
	q := bgg.ThingQuery{}
	cmd := &cobra.Command{
		Use:   "thing <id[,id...]>",
		Short: "Fetch items by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := bgg.ParseIDs(args[0])
			if err != nil {
				return err
			}
			q.IDs = ids

			a, err := newApp(root)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			res := a.api.Things(cmd.Context(), q)
			if !res.OK() {
				return res.Err
			}
			for _, f := range res.Failures {
				a.logger.Warn().Err(f.Err).Int("id", f.Key).Int("page", f.Page).Msg("Comment page skipped")
			}
			return printJSON(cmd.OutOrStdout(), res.Value)
		},
	}
	fs := cmd.Flags()
	fs.BoolVar(&q.Stats, "stats", false, "include rating statistics")
	fs.BoolVar(&q.Comments, "comments", false, "include all comments")
	fs.BoolVar(&q.RatingComments, "rating-comments", false, "include all rating comments")
	fs.IntVar(&q.ToPage, "to-page", 0, "last comment page per item (0 for all)")
	return cmd
}

func newFetchSitemapCmd(root *rootOptions) *cobra.Command {
	var (
		index      string
		categories []string
	)
	cmd := &cobra.Command{
		Use:   "sitemap",
		Short: "Collect sitemap URLs grouped by category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(root)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			filter := make([]fanout.Category, 0, len(categories))
			for _, name := range categories {
				filter = append(filter, fanout.ParseCategory(name))
			}
			res := a.api.Sitemap(cmd.Context(), index, filter...)
			if !res.OK() {
				return res.Err
			}
			for _, f := range res.Failures {
				a.logger.Warn().Err(f.Err).Str("url", f.Location.URL).Msg("Location skipped")
			}
			return printJSON(cmd.OutOrStdout(), res.Value)
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&index, "index", bgg.DefaultSitemapIndex, "sitemap index URL")
	fs.StringSliceVar(&categories, "category", nil, "categories to fetch (repeatable, all when empty)")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
