package main

import (
	"fmt"
	"os"

	"github.com/arthur-debert/claude-kit/cmd/ckit"
	"github.com/arthur-debert/claude-kit/pkg/kiterr"
	"github.com/charmbracelet/lipgloss"
)

var errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)

// Exit codes: 1 for resolution-phase failures (nothing on disk was
// touched), 2 for a deployment-phase target collision, 1 for anything
// else.
func exitCode(err error) int {
	if kiterr.IsErrorCode(err, kiterr.ErrTargetCollision) {
		return 2
	}
	return 1
}

func main() {
	rootCmd := ckit.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("Error: %v", err)))
		os.Exit(exitCode(err))
	}
}
