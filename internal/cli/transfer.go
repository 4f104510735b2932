package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"eventcal/internal/ics"
	"eventcal/internal/model"
	"eventcal/internal/store"

	"github.com/spf13/cobra"
)

func newExportCmd(app *App) *cobra.Command {
	var as, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all events as JSON (the stored blob) or iCalendar",
		Example: strings.TrimSpace(`
eventcal export --as ics --out events.ics
eventcal export --as json > events.json
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmdContext(cmd), cmd, app, false)
			if err != nil {
				return writeErr(cmd, err)
			}
			kind := exportKind(as, out)

			var b bytes.Buffer
			switch kind {
			case "ics":
				err = ics.Export(&b, e.dir.Events(), time.Now())
			case "json":
				enc := json.NewEncoder(&b)
				enc.SetIndent("", "  ")
				err = enc.Encode(e.dir.Events())
			default:
				err = fmt.Errorf("unknown export format %q (want json or ics)", as)
			}
			if err != nil {
				return writeErr(cmd, err)
			}

			if strings.TrimSpace(out) == "" {
				_, err := io.Copy(cmd.OutOrStdout(), &b)
				return err
			}
			if err := store.WriteFileAtomic(out, b.Bytes(), 0o644); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"path": out, "format": kind, "count": len(e.dir.Events())})
		},
	}
	cmd.Flags().StringVar(&as, "as", "", "json|ics (default from --out extension, else json)")
	cmd.Flags().StringVar(&out, "out", "", "Write to this file instead of stdout")
	return cmd
}

func exportKind(as, path string) string {
	if v := strings.ToLower(strings.TrimSpace(as)); v != "" {
		return v
	}
	if strings.EqualFold(filepath.Ext(path), ".ics") {
		return "ics"
	}
	return "json"
}

func newImportCmd(app *App) *cobra.Command {
	var as string
	var replace bool

	cmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Merge events from a JSON export or an .ics file",
		Long: strings.TrimSpace(`
Merge events by id: events with a known id are replaced, new ones are appended.
With --replace the whole collection is overwritten. JSON input is the same array
'export --as json' writes (a browser localStorage "events" value works too).
`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			e, err := openEnv(ctx, cmd, app, false)
			if err != nil {
				return writeErr(cmd, err)
			}

			var raw []byte
			if args[0] == "-" {
				raw, err = io.ReadAll(cmd.InOrStdin())
			} else {
				raw, err = os.ReadFile(args[0])
			}
			if err != nil {
				return writeErr(cmd, err)
			}

			incoming, err := decodeImport(exportKind(as, args[0]), raw)
			if err != nil {
				return writeErr(cmd, err)
			}
			incoming, err = assignMissingIDs(incoming, e.dir.Events())
			if err != nil {
				return writeErr(cmd, err)
			}

			res, err := e.svc.Import(ctx, incoming, replace)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"added":    res.Added,
				"replaced": res.Replaced,
				"skipped":  res.Skipped,
				"total":    len(e.dir.Events()),
			})
		},
	}
	cmd.Flags().StringVar(&as, "as", "", "json|ics (default from file extension, else json)")
	cmd.Flags().BoolVar(&replace, "replace", false, "Overwrite the collection instead of merging")
	return cmd
}

func decodeImport(kind string, raw []byte) ([]model.Event, error) {
	switch kind {
	case "ics":
		return ics.Parse(bytes.NewReader(raw))
	case "json":
		var evs []model.Event
		if err := json.Unmarshal(raw, &evs); err != nil {
			return nil, fmt.Errorf("import: %w", err)
		}
		for i := range evs {
			evs[i].Category = model.NormalizeCategory(string(evs[i].Category))
		}
		return evs, nil
	}
	return nil, fmt.Errorf("unknown import format %q (want json or ics)", kind)
}

// assignMissingIDs gives id-less imported events fresh ids unique across both sets.
func assignMissingIDs(incoming, existing []model.Event) ([]model.Event, error) {
	seen := append(model.Clone(existing), incoming...)
	for i := range incoming {
		if strings.TrimSpace(incoming[i].ID) != "" {
			continue
		}
		id, err := store.NewUniqueEventID(seen)
		if err != nil {
			return nil, err
		}
		incoming[i].ID = id
		seen = append(seen, incoming[i])
	}
	return incoming, nil
}

func newBackupCmd(app *App) *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write a JSON snapshot to <dir>/backups and prune old ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			e, err := openEnv(ctx, cmd, app, false)
			if err != nil {
				return writeErr(cmd, err)
			}
			if keep <= 0 {
				keep = e.cfg.Backup.Keep
			}
			path, err := backupJob(e, keep).RunOnce(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"path": path, "keep": keep}, "eventcal backup list")
		},
	}
	cmd.Flags().IntVar(&keep, "keep", 0, "Snapshots to keep (default from config)")

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List snapshots, oldest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := resolveDir(app); err != nil {
				return writeErr(cmd, err)
			}
			paths, err := store.Store{Dir: app.Dir}.ListBackups()
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, paths)
		},
	})
	return cmd
}
