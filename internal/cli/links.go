package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/ProjectAether/navlink/internal/database"
	"github.com/ProjectAether/navlink/internal/geo"
	gormstorage "github.com/ProjectAether/navlink/internal/storage/gorm"
	"github.com/ProjectAether/navlink/pkg/core"
	"github.com/spf13/cobra"
)

type linksOptions struct {
	level   string
	history string
	asJSON  bool
}

func newLinksCmd() *cobra.Command {
	opts := &linksOptions{}
	cmd := &cobra.Command{
		Use:   "links <dump.db>",
		Short: "List the links stored in a SQLite dump",
		Long: `Links reads a SQLite database written by the sqlite storage backend and prints
the latest state of every link. --history prints the revisions of one link id instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLinks(cmd, args[0], opts)
		},
	}
	cmd.Flags().StringVar(&opts.level, "level", "", "Only list links of this level")
	cmd.Flags().StringVar(&opts.history, "history", "", "Print the revision history of this link id")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Output in JSON format")
	return cmd
}

func openDump(path string) (*gormstorage.Backend, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("opening dump: %w", err)
	}
	db, err := database.OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	return gormstorage.New(gormstorage.Dependencies{
		DB:     db,
		Logger: slog.New(slog.DiscardHandler),
	}), nil
}

func runLinks(cmd *cobra.Command, path string, opts *linksOptions) error {
	store, err := openDump(path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if opts.history != "" {
		return printHistory(cmd, store, opts.history, opts.asJSON)
	}

	all, err := store.Links()
	if err != nil {
		return err
	}
	links := all[:0]
	for _, l := range all {
		if opts.level == "" || l.Level == opts.level {
			links = append(links, l)
		}
	}

	if len(links) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No links stored.")
		return nil
	}
	if opts.asJSON {
		return printJSON(cmd, links)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "LEVEL\tPROXY\tSTART\tEND\tLENGTH (cm)\tMAGNITUDE\tREV")
	for _, l := range links {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f\t%s\t%d\n",
			l.Level, l.Proxy, l.Link.Start, l.Link.End, geo.Length3D(l.Link), l.Settings.Magnitude, l.Revision)
	}
	return w.Flush()
}

type revisionRow struct {
	Revision uint64        `json:"revision"`
	Deleted  bool          `json:"deleted"`
	Link     core.LinkData `json:"link"`
	Recorded string        `json:"recordedAt"`
}

func printHistory(cmd *cobra.Command, store *gormstorage.Backend, id string, asJSON bool) error {
	revs, err := store.Revisions(id)
	if err != nil {
		return err
	}
	if len(revs) == 0 {
		return fmt.Errorf("no revisions stored for link %s", id)
	}

	rows := make([]revisionRow, 0, len(revs))
	for _, r := range revs {
		row := revisionRow{
			Revision: r.Revision,
			Deleted:  r.Deleted,
			Recorded: r.RecordedAt.UTC().Format("2006-01-02T15:04:05Z"),
		}
		if len(r.Geometry) > 0 {
			if row.Link, err = geo.LinkFromWKB(r.Geometry); err != nil {
				return fmt.Errorf("revision %d: %w", r.Revision, err)
			}
		}
		rows = append(rows, row)
	}

	if asJSON {
		return printJSON(cmd, rows)
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "REV\tRECORDED\tSTART\tEND\tDELETED")
	for _, r := range rows {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%t\n", r.Revision, r.Recorded, r.Link.Start, r.Link.End, r.Deleted)
	}
	return w.Flush()
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
