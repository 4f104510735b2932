package cli

import (
	"fmt"
	"strings"
	"time"

	"eventcal/internal/calendar"
	"eventcal/internal/dateparse"
	"eventcal/internal/model"
	"eventcal/internal/mutate"

	"github.com/spf13/cobra"
)

func newEventsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "events",
		Aliases: []string{"event", "ev"},
		Short:   "List, add, show, edit and delete events",
	}
	cmd.AddCommand(newEventsListCmd(app))
	cmd.AddCommand(newEventsAddCmd(app))
	cmd.AddCommand(newEventsShowCmd(app))
	cmd.AddCommand(newEventsEditCmd(app))
	cmd.AddCommand(newEventsDeleteCmd(app))
	return cmd
}

func newEventsListCmd(app *App) *cobra.Command {
	var day, month, category string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List events (storage order; filtered lists are date-ordered)",
		Example: strings.TrimSpace(`
eventcal events list
eventcal events list --month 2025-03 --category Work
eventcal events list --date today
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			e, err := openEnv(ctx, cmd, app, false)
			if err != nil {
				return writeErr(cmd, err)
			}
			now := time.Now().In(e.cfg.Location())
			evs := e.dir.Events()

			switch {
			case strings.TrimSpace(day) != "":
				d, err := dateparse.Parse(day, now)
				if err != nil {
					return writeErr(cmd, err)
				}
				evs = calendar.EventsOnDay(evs, d)
			case strings.TrimSpace(month) != "":
				m, err := parseMonth(month, now)
				if err != nil {
					return writeErr(cmd, err)
				}
				evs = calendar.EventsInMonth(evs, m)
			}

			if strings.TrimSpace(category) != "" {
				c, ok := model.ParseCategory(category)
				if !ok {
					return writeErr(cmd, errUnknownCategory(category))
				}
				out := evs[:0:0]
				for _, ev := range evs {
					if model.NormalizeCategory(string(ev.Category)) == c {
						out = append(out, ev)
					}
				}
				evs = out
			}
			return writeOut(cmd, app, evs)
		},
	}
	cmd.Flags().StringVar(&day, "date", "", "Only events on this day (YYYY-MM-DD or a phrase like \"tomorrow\")")
	cmd.Flags().StringVar(&month, "month", "", "Only events in this month (YYYY-MM)")
	cmd.Flags().StringVar(&category, "category", "", "Only events in this category")
	return cmd
}

func newEventsAddCmd(app *App) *cobra.Command {
	var title, desc, date, category string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an event",
		Example: strings.TrimSpace(`
eventcal events add --title "Standup" --date 2025-03-10 --category Work
eventcal events add --title "Dinner" --date "next friday" --desc "Table for **4**"
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			e, err := openEnv(ctx, cmd, app, false)
			if err != nil {
				return writeErr(cmd, err)
			}
			now := time.Now().In(e.cfg.Location())
			ev, err := e.svc.Add(ctx, mutate.Draft{
				Title:    title,
				Desc:     desc,
				Date:     dateparse.Normalize(date, now),
				Category: category,
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, ev, "eventcal events show "+ev.ID)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Title")
	cmd.Flags().StringVar(&desc, "desc", "", "Description (markdown)")
	cmd.Flags().StringVar(&date, "date", "", "Date (YYYY-MM-DD or a phrase like \"tomorrow\")")
	cmd.Flags().StringVar(&category, "category", "", "Category ("+categoryList()+")")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func newEventsShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "show <ev-id>",
		Aliases: []string{"get"},
		Short:   "Show one event",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmdContext(cmd), cmd, app, false)
			if err != nil {
				return writeErr(cmd, err)
			}
			ev, ok := e.dir.Find(args[0])
			if !ok {
				return writeErr(cmd, errNotFound(args[0]))
			}
			return writeOut(cmd, app, ev)
		},
	}
}

func newEventsEditCmd(app *App) *cobra.Command {
	var title, desc, date, category string

	cmd := &cobra.Command{
		Use:   "edit <ev-id>",
		Short: "Change fields of an event (only the flags you pass)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			e, err := openEnv(ctx, cmd, app, false)
			if err != nil {
				return writeErr(cmd, err)
			}
			var p mutate.Patch
			f := cmd.Flags()
			if f.Changed("title") {
				p.Title = &title
			}
			if f.Changed("desc") {
				p.Desc = &desc
			}
			if f.Changed("date") {
				v := dateparse.Normalize(date, time.Now().In(e.cfg.Location()))
				p.Date = &v
			}
			if f.Changed("category") {
				p.Category = &category
			}
			if p.Empty() {
				return writeErr(cmd, fmt.Errorf("nothing to change: pass --title, --desc, --date or --category"))
			}
			ev, err := e.svc.Update(ctx, args[0], p)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, ev)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&desc, "desc", "", "New description")
	cmd.Flags().StringVar(&date, "date", "", "New date")
	cmd.Flags().StringVar(&category, "category", "", "New category")
	return cmd
}

func newEventsDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <ev-id>",
		Aliases: []string{"rm"},
		Short:   "Delete an event",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			e, err := openEnv(ctx, cmd, app, false)
			if err != nil {
				return writeErr(cmd, err)
			}
			ev, err := e.svc.Delete(ctx, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"deleted": ev})
		},
	}
}

func categoryList() string {
	cats := model.Categories()
	out := make([]string, len(cats))
	for i, c := range cats {
		out[i] = string(c)
	}
	return strings.Join(out, "|")
}

// parseMonth accepts YYYY-MM, or any date dateparse understands.
func parseMonth(s string, now time.Time) (model.Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01", s); err == nil {
		return model.DateOf(t), nil
	}
	d, err := dateparse.Parse(s, now)
	if err != nil {
		return model.Date{}, fmt.Errorf("invalid month %q: expected YYYY-MM", s)
	}
	return calendar.MonthStart(d), nil
}
