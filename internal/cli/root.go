// Package cli implements navlinkctl, the operator tool for smart links.
package cli

import (
	"github.com/spf13/cobra"
)

// BuildInfo is injected via ldflags by the main package.
type BuildInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// NewRootCmd builds the command tree.
func NewRootCmd(info BuildInfo) *cobra.Command {
	root := &cobra.Command{
		Use:   "navlinkctl",
		Short: "Inspect and compute smart navigation links",
		Long: `navlinkctl computes snapped smart-link endpoints outside the editor and
reads link tables from SQLite dumps written by the aether_navlink extension
and uploads exports to the link server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newSnapCmd(), newLinksCmd(), newUploadCmd(info), newVersionCmd(info))
	return root
}

// Execute runs the root command with build info injected via ldflags.
func Execute(info BuildInfo) error {
	return NewRootCmd(info).Execute()
}
