package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/piyush0609/ai-pulse/internal/digest"
	"github.com/spf13/cobra"
)

var (
	flagDigestFresh bool
	flagDigestJSON  bool
	flagDigestPlain bool
)

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Generate the digest and print it",
	Long:  "Generate (or serve from cache) the current digest and print it as plain text (--plain, the default), or raw JSON with --json.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		data, err := a.service.Digest(cmd.Context(), flagDigestFresh)
		if err != nil {
			return fmt.Errorf("generating digest: %w", err)
		}

		if flagDigestJSON {
			fmt.Println(string(data))
			return nil
		}

		var p digest.Payload
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("decoding digest: %w", err)
		}
		fmt.Print(renderPlain(&p))
		return nil
	},
}

func init() {
	digestCmd.Flags().BoolVar(&flagDigestFresh, "fresh", false, "bypass the cache and regenerate")
	digestCmd.Flags().BoolVar(&flagDigestJSON, "json", false, "print the raw digest payload")
	digestCmd.Flags().BoolVar(&flagDigestPlain, "plain", false, "print plain text (the default)")
	digestCmd.MarkFlagsMutuallyExclusive("json", "plain")
}

// renderPlain formats a digest for a dumb terminal or a pipe.
func renderPlain(p *digest.Payload) string {
	var b strings.Builder

	fmt.Fprintf(&b, "ai-pulse digest — %s (%s, %d items)\n\n",
		p.GeneratedAt.Format("Jan 2 15:04"), p.Source, p.ItemCount)
	fmt.Fprintf(&b, "%s\n", p.Summary)

	for _, theme := range p.Themes {
		fmt.Fprintf(&b, "\n## %s [%s]\n%s\n", theme.Title, theme.Mood, theme.Description)
		for _, h := range theme.Items {
			fmt.Fprintf(&b, "  - %s (%s)\n", h.Item.Title, h.Item.Source)
		}
	}

	if len(p.Highlights) > 0 {
		fmt.Fprintf(&b, "\n## Highlights\n")
		for _, h := range p.Highlights {
			fmt.Fprintf(&b, "  - %s (%s)\n    %s\n", h.Item.Title, h.Item.Source, h.Item.URL)
			if h.WhyMatters != "" {
				fmt.Fprintf(&b, "    %s\n", h.WhyMatters)
			}
		}
	}

	if p.ClosingNote != "" {
		fmt.Fprintf(&b, "\n%s\n", p.ClosingNote)
	}
	return b.String()
}
