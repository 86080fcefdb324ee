package cmd

import (
	"context"
	"fmt"

	"github.com/piyush0609/ai-pulse/internal/tui"
	"github.com/spf13/cobra"
)

func runTUI(cmd *cobra.Command, args []string) error {
	a, err := buildApp(context.Background())
	if err != nil {
		return err
	}
	defer a.close()

	if err := tui.Run(tui.RunOpts{Streamer: a.service, ForceFresh: flagFresh}); err != nil {
		return fmt.Errorf("running digest view: %w", err)
	}
	return nil
}
