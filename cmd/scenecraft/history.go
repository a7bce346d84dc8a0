package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/easeaico/scenecraft/internal/memory"
	"github.com/spf13/cobra"
)

var similarCmd = &cobra.Command{
	Use:   "similar <prompt>",
	Short: "List past creations that share words with a prompt",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		records, err := a.store.QuerySimilar(ctx, strings.Join(args, " "), limit)
		if err != nil {
			return err
		}
		printCreations(cmd.OutOrStdout(), records)
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List the most recent creations",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		records, err := a.store.Recent(ctx, limit)
		if err != nil {
			return err
		}
		total, err := a.store.Count(ctx)
		if err != nil {
			return err
		}
		printCreations(cmd.OutOrStdout(), records)
		fmt.Fprintf(cmd.OutOrStdout(), "%d of %d creations\n", len(records), total)
		return nil
	},
}

func printCreations(w io.Writer, records []memory.CreationRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No creations found.")
		return
	}
	for _, rec := range records {
		fmt.Fprintf(w, "%s  %s  %s\n", rec.Timestamp.Local().Format(time.DateTime), rec.ID, rec.OriginalPrompt)
		fmt.Fprintf(w, "    image: %s\n", rec.ImagePath)
		if rec.HasModel() {
			fmt.Fprintf(w, "    model: %s\n", rec.ModelPath)
		}
	}
}

func init() {
	rootCmd.AddCommand(similarCmd, historyCmd)
	similarCmd.Flags().Int("limit", memory.DefaultLimit, "Maximum number of creations to list")
	historyCmd.Flags().Int("limit", 10, "Maximum number of creations to list")
}
