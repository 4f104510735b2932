package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"eventcal/internal/config"
	"eventcal/internal/directory"
	"eventcal/internal/events"
	"eventcal/internal/format"
	appLog "eventcal/internal/log"
	"eventcal/internal/metrics"
	"eventcal/internal/store"
	"eventcal/internal/tui"

	"github.com/spf13/cobra"
)

type App struct {
	Dir        string
	ConfigPath string
	PrettyJSON bool
	Format     string
	LogLevel   string
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "eventcal",
		Short:        "Local calendar of events: TUI, web UI and scriptable CLI",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  eventcal

  # Scriptable commands
  eventcal events add --title "Dentist" --date "next tuesday" --category Personal
  eventcal upcoming --year 2025 --category Work

  # Direct event lookup (shortcut for: eventcal events show <ev-id>)
  eventcal ev-abcd2345

  # Browser UI with live refresh
  eventcal web
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&app.Dir, "dir", envOr("EVENTCAL_DIR", ""), "Data directory (default ~/.eventcal)")
	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", envOr("EVENTCAL_CONFIG", ""), "Config file (default <dir>/config.yaml)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("EVENTCAL_FORMAT", "json"), "Output format ("+strings.Join(format.Formats(), "|")+")")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", envOr("EVENTCAL_LOG_LEVEL", ""), "Log level (debug|info|warn|error; default from config)")

	cmd.AddCommand(newEventsCmd(app))
	cmd.AddCommand(newCalendarCmd(app))
	cmd.AddCommand(newUpcomingCmd(app))
	cmd.AddCommand(newExportCmd(app))
	cmd.AddCommand(newImportCmd(app))
	cmd.AddCommand(newBackupCmd(app))
	cmd.AddCommand(newWebCmd(app))
	cmd.AddCommand(newDocsCmd(app))
	cmd.AddCommand(newConfigCmd(app))

	return cmd
}

// env is everything a command needs once the data dir and config are resolved.
type env struct {
	cfgPath string
	cfg     *config.Config
	store   store.Store
	dir     *directory.Directory
	svc     *events.Service
	metrics *metrics.Metrics
}

func resolveDir(app *App) (string, error) {
	if d := strings.TrimSpace(app.Dir); d != "" {
		return d, nil
	}
	d, err := store.DefaultDir()
	if err != nil {
		return "", err
	}
	app.Dir = d
	return d, nil
}

// loadConfig resolves the data dir and config and sets up logging.
func loadConfig(cmd *cobra.Command, app *App) (string, *config.Config, error) {
	dir, err := resolveDir(app)
	if err != nil {
		return "", nil, err
	}
	path := config.Path(dir, app.ConfigPath)
	cfg, err := config.Load(path)
	if err != nil {
		return "", nil, fmt.Errorf("load config %s: %w", path, err)
	}
	level := app.LogLevel
	if strings.TrimSpace(level) == "" {
		level = cfg.LogLevel
	}
	appLog.Setup(cmd.ErrOrStderr(), level)
	return path, cfg, nil
}

// openEnv hydrates the directory. withMetrics is only needed by long-running
// commands that expose /metrics.
func openEnv(ctx context.Context, cmd *cobra.Command, app *App, withMetrics bool) (*env, error) {
	path, cfg, err := loadConfig(cmd, app)
	if err != nil {
		return nil, err
	}
	st := store.Store{Dir: app.Dir}
	if err := st.Ensure(); err != nil {
		return nil, err
	}

	var m *metrics.Metrics
	if withMetrics {
		m = metrics.New()
	}
	dir := directory.New(st,
		directory.WithPolicy(directory.ParsePolicy(cfg.ConflictPolicy)),
		directory.WithOnChange(m.ObserveEvents),
	)
	if err := dir.Hydrate(ctx); err != nil {
		return nil, err
	}
	m.ObserveEvents(dir.Events())
	return &env{
		cfgPath: path,
		cfg:     cfg,
		store:   st,
		dir:     dir,
		svc:     events.New(dir, m),
		metrics: m,
	}, nil
}

func runTUI(cmd *cobra.Command, app *App) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	e, err := openEnv(ctx, cmd, app, false)
	if err != nil {
		return writeErr(cmd, err)
	}
	return tui.Run(ctx, tui.Options{
		Directory:    e.dir,
		Service:      e.svc,
		WeekStart:    e.cfg.WeekStartDay(),
		IndicatorCap: e.cfg.IndicatorCap,
		Location:     e.cfg.Location(),
	})
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, data any, hints ...string) error {
	return format.Write(cmd.OutOrStdout(), format.Envelope{Data: data, Hints: hints}, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), describeErr(err))
	return err
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
