package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/signal"
	"strings"
	"syscall"
	"time"

	appLog "eventcal/internal/log"
	"eventcal/internal/scheduler"
	"eventcal/internal/web"

	"github.com/spf13/cobra"
)

func backupJob(e *env, keep int) scheduler.Backups {
	return scheduler.Backups{Target: e.store, Keep: keep, Reporter: e.metrics}
}

func newWebCmd(app *App) *cobra.Command {
	var addr string
	var open bool
	var poll time.Duration

	cmd := &cobra.Command{
		Use:   "web",
		Short: "Serve the calendar in the browser (live-updating via SSE)",
		Long: strings.TrimSpace(`
Serve the calendar from a local HTTP server.

Pages are server-rendered; open tabs follow changes made from the TUI, the CLI
or other tabs through a datastar SSE stream. While running, JSON backups are
taken on the configured cron schedule and Prometheus metrics are served on /metrics.
`),
		Example: strings.TrimSpace(`
eventcal web
eventcal web --addr :3336 --open=false
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmdContext(cmd), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			e, err := openEnv(ctx, cmd, app, true)
			if err != nil {
				return writeErr(cmd, err)
			}
			listenAddr := strings.TrimSpace(addr)
			if listenAddr == "" {
				listenAddr = e.cfg.Listen
			}
			if listenAddr == "" {
				return writeErr(cmd, errors.New("web: missing --addr"))
			}

			srv, err := web.NewServer(web.ServerConfig{
				Addr:         listenAddr,
				Location:     e.cfg.Location(),
				WeekStart:    e.cfg.WeekStartDay(),
				IndicatorCap: e.cfg.IndicatorCap,
			}, e.dir, e.svc, e.metrics)
			if err != nil {
				return writeErr(cmd, err)
			}

			ln, err := net.Listen("tcp", srv.Addr())
			if err != nil {
				return writeErr(cmd, err)
			}

			stopBackups, err := backupJob(e, e.cfg.Backup.Keep).Start(ctx, e.cfg.Backup.Schedule)
			if err != nil {
				_ = ln.Close()
				return writeErr(cmd, err)
			}
			defer stopBackups()

			watchCtx, cancelWatch := context.WithCancel(ctx)
			defer cancelWatch()
			go e.dir.Watch(watchCtx, poll)

			actualAddr := ln.Addr().String()
			url := "http://" + actualAddr + "/"

			opened, openErr := false, ""
			if open {
				if err := openPath(url); err != nil {
					openErr = err.Error()
				} else {
					opened = true
				}
			}
			hints := []string{}
			if !opened {
				hints = append(hints, "open "+url)
			}
			_ = writeOut(cmd, app, map[string]any{
				"addr":           actualAddr,
				"url":            url,
				"dir":            app.Dir,
				"opened":         opened,
				"openError":      openErr,
				"backupSchedule": e.cfg.Backup.Schedule,
				"startedAt":      time.Now().UTC().Format(time.RFC3339Nano),
			}, hints...)

			fmt.Fprintf(cmd.ErrOrStderr(), "eventcal web running at %s (dir=%s)\n", url, app.Dir)
			appLog.Info("web listening", "addr", actualAddr)
			return srv.Serve(ctx, ln)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Bind address (host:port or :port; default from config)")
	cmd.Flags().BoolVar(&open, "open", true, "Open the UI in your default browser")
	cmd.Flags().DurationVar(&poll, "poll", 2*time.Second, "How often to check the store for writes from other processes")
	return cmd
}
