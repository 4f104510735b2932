// Package tui is the terminal front end: a month grid with a side list, an
// upcoming view, event detail and an add/edit form.
package tui

import (
	"context"
	"errors"

	appLog "eventcal/internal/log"

	tea "github.com/charmbracelet/bubbletea"
)

// Run blocks until the user quits. Logging is silenced while the alt screen is up.
func Run(ctx context.Context, opts Options) error {
	if opts.Directory == nil || opts.Service == nil {
		return errors.New("tui: directory and service are required")
	}
	if err := opts.Directory.Hydrate(ctx); err != nil {
		return err
	}
	applyThemePreference()
	applyColorProfilePreference()
	appLog.Discard()

	_, err := tea.NewProgram(newAppModel(opts), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
