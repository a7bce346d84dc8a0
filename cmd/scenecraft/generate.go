package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate [prompt]",
	Short: "Generate a scene from a prompt",
	Long: `Runs the full generation pipeline once for the given prompt. Without a
prompt argument, prompts are read from standard input one line at a time.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		if len(args) > 0 {
			res := a.pipeline.Run(ctx, strings.Join(args, " "))
			fmt.Fprintln(out, res.Summary())
			if !res.OK() {
				return fmt.Errorf("generation failed")
			}
			return nil
		}

		fmt.Fprintln(out, "Describe a scene (Ctrl-D to quit):")
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for {
			fmt.Fprint(out, "> ")
			if !scanner.Scan() {
				break
			}
			prompt := strings.TrimSpace(scanner.Text())
			if prompt == "" {
				continue
			}
			fmt.Fprintln(out, "Generating...")
			res := a.pipeline.Run(ctx, prompt)
			fmt.Fprintln(out, res.Summary())
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
		return scanner.Err()
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
}
