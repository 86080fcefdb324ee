package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/piyush0609/ai-pulse/internal/update"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagConfig string
	flagFresh  bool
)

var rootCmd = &cobra.Command{
	Use:   "ai-pulse",
	Short: "Personalized AI-news digest",
	Long:  "ai-pulse collects AI-related items from configured feeds and synthesizes them into a curated daily digest.",
	RunE:  runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")
	rootCmd.Flags().BoolVar(&flagFresh, "fresh", false, "bypass the cache and regenerate the digest")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(digestCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(clearCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ai-pulse %s (commit: %s, built: %s)\n", version, commit, date)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if res := update.Check(ctx, version); res != nil {
			fmt.Printf("A newer version is available: %s\n", res.LatestVersion)
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}
