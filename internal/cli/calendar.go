package cli

import (
	"strings"
	"time"

	"eventcal/internal/calendar"
	"eventcal/internal/dateparse"
	"eventcal/internal/model"

	"github.com/spf13/cobra"
)

func newCalendarCmd(app *App) *cobra.Command {
	var month, selected string

	cmd := &cobra.Command{
		Use:     "calendar",
		Aliases: []string{"cal", "month"},
		Short:   "Print the month grid (weeks of day cells with event indicators)",
		Example: strings.TrimSpace(`
eventcal calendar
eventcal calendar --month 2025-03 --selected 2025-03-10 --pretty
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmdContext(cmd), cmd, app, false)
			if err != nil {
				return writeErr(cmd, err)
			}
			now := time.Now().In(e.cfg.Location())
			ref := calendar.MonthStart(model.DateOf(now))
			if strings.TrimSpace(month) != "" {
				if ref, err = parseMonth(month, now); err != nil {
					return writeErr(cmd, err)
				}
			}
			var sel *model.Date
			if strings.TrimSpace(selected) != "" {
				d, err := dateparse.Parse(selected, now)
				if err != nil {
					return writeErr(cmd, err)
				}
				sel = &d
				if strings.TrimSpace(month) == "" {
					ref = calendar.MonthStart(d)
				}
			}
			g := calendar.BuildGrid(ref.Time(e.cfg.Location()), e.dir.Events(), sel, calendar.GridOptions{
				WeekStart:    e.cfg.WeekStartDay(),
				Today:        model.DateOf(now),
				IndicatorCap: e.cfg.IndicatorCap,
			})
			return writeOut(cmd, app, map[string]any{
				"title":    g.Title(),
				"weekdays": g.Weekdays(),
				"grid":     g,
			})
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "Month to show (YYYY-MM; default current)")
	cmd.Flags().StringVar(&selected, "selected", "", "Mark this day as selected")
	return cmd
}

func newUpcomingCmd(app *App) *cobra.Command {
	var year int
	var category string

	cmd := &cobra.Command{
		Use:   "upcoming",
		Short: "Events after now in a year, grouped by year then month",
		Example: strings.TrimSpace(`
eventcal upcoming
eventcal upcoming --year 2026 --category Personal
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmdContext(cmd), cmd, app, false)
			if err != nil {
				return writeErr(cmd, err)
			}
			now := time.Now().In(e.cfg.Location())
			if year <= 0 {
				year = now.Year()
			}
			c, ok := model.ParseCategory(category)
			if !ok {
				return writeErr(cmd, errUnknownCategory(category))
			}
			groups := calendar.GroupByYearThenMonth(calendar.FilterUpcoming(e.dir.Events(), year, c, now))
			return writeOut(cmd, app, map[string]any{
				"year":     year,
				"category": string(c),
				"count":    groups.Count(),
				"groups":   groups,
			})
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "Year (default current)")
	cmd.Flags().StringVar(&category, "category", "", "Only this category ("+categoryList()+")")
	return cmd
}
