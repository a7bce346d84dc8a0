package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "scenecraft",
	Short: "Turn short prompts into detailed scenes, images and 3D models",
	Long: `scenecraft expands a free-text scene description with a language model,
renders it to an image, lifts the image to a 3D model and remembers every
creation so later prompts can build on earlier ones.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and runs it.
// Interrupts cancel the command context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
