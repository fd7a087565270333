package ckit

import (
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

//go:embed docs/*.md
var topicsFS embed.FS

func newTopicsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "topics [topic]",
		Short: "Long-form help on references, bundles, and modes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return listTopics(cmd)
			}
			return showTopic(cmd, args[0])
		},
	}
}

func listTopics(cmd *cobra.Command) error {
	entries, err := topicsFS.ReadDir("docs")
	if err != nil {
		return err
	}
	var names []string
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".md"))
	}
	sort.Strings(names)

	fmt.Fprintln(cmd.OutOrStdout(), "Available topics:")
	for _, name := range names {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", name)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "\nUse: ckit topics <name>")
	return nil
}

func showTopic(cmd *cobra.Command, name string) error {
	content, err := topicsFS.ReadFile("docs/" + name + ".md")
	if err != nil {
		return fmt.Errorf("unknown topic %q (try `ckit topics`)", name)
	}
	fmt.Fprint(cmd.OutOrStdout(), renderMarkdown(string(content)))
	return nil
}

// renderMarkdown converts markdown to terminal output with glamour,
// falling back to the raw text when rendering is not possible.
func renderMarkdown(content string) string {
	renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle())
	if err != nil {
		return content
	}
	rendered, err := renderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}
