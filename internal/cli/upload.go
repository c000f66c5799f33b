package cli

import (
	"fmt"
	"os"

	"github.com/ProjectAether/navlink/internal/api"
	"github.com/spf13/cobra"
)

type uploadOptions struct {
	server    string
	apiKey    string
	level     string
	version   string
	linkCount int
}

func newUploadCmd(info BuildInfo) *cobra.Command {
	opts := &uploadOptions{}
	cmd := &cobra.Command{
		Use:   "upload <export>",
		Short: "Upload a link export or SQLite dump to the link server",
		Long: `Upload sends a memory export (.json or .json.gz) or a SQLite dump (.db) to
the link server. For dumps the link count is read from the file when --links
is not given. The API key falls back to $NAVLINK_API_KEY.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpload(cmd, args[0], opts)
		},
	}
	cmd.Flags().StringVar(&opts.server, "server", "http://localhost:5000", "Link server base URL")
	cmd.Flags().StringVar(&opts.apiKey, "key", "", "API key")
	cmd.Flags().StringVar(&opts.level, "level", "", "Level the export belongs to")
	cmd.Flags().StringVar(&opts.version, "extension-version", info.Version, "Extension version that wrote the export")
	cmd.Flags().IntVar(&opts.linkCount, "links", 0, "Number of links in the export")
	return cmd
}

func runUpload(cmd *cobra.Command, path string, opts *uploadOptions) error {
	if opts.apiKey == "" {
		opts.apiKey = os.Getenv("NAVLINK_API_KEY")
	}

	format := api.FormatFor(path)
	if format == "sqlite" && opts.linkCount == 0 {
		n, err := countDumpLinks(path, opts.level)
		if err != nil {
			return err
		}
		opts.linkCount = n
	}

	client := api.New(opts.server, opts.apiKey)
	if err := client.Healthcheck(); err != nil {
		return fmt.Errorf("link server unavailable: %w", err)
	}
	err := client.Upload(path, api.UploadMetadata{
		Level:            opts.level,
		ExtensionVersion: opts.version,
		LinkCount:        opts.linkCount,
		Format:           format,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s (%d links)\n", path, opts.linkCount)
	return nil
}

func countDumpLinks(path, level string) (int, error) {
	store, err := openDump(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = store.Close() }()

	links, err := store.Links()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, l := range links {
		if level == "" || l.Level == level {
			n++
		}
	}
	return n, nil
}
