package tui

import (
	"context"
	"errors"
	"time"

	"eventcal/internal/calendar"
	"eventcal/internal/directory"
	"eventcal/internal/events"
	"eventcal/internal/model"
	"eventcal/internal/mutate"
	"eventcal/internal/store"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type view int

const (
	viewMonth view = iota
	viewUpcoming
	viewDetail
	viewForm
	viewHelp
)

const defaultPollEvery = 2 * time.Second

// Options configures the interactive UI.
type Options struct {
	Directory    *directory.Directory
	Service      *events.Service
	WeekStart    time.Weekday
	IndicatorCap int
	Location     *time.Location
	Now          func() time.Time
	PollEvery    time.Duration
}

type reloadTickMsg struct{}

type reloadedMsg struct {
	changed bool
	err     error
}

type mutationDoneMsg struct {
	op    string
	event model.Event
	err   error
}

type clipboardDoneMsg struct {
	text string
	err  error
}

type appModel struct {
	opts Options
	keys keyMap

	width  int
	height int

	view     view
	backView view

	events []model.Event

	month     model.Date
	selected  model.Date
	highlight int

	upYear     int
	upCategory model.Category
	upCursor   int

	detailID string

	form    *eventForm
	confirm *confirmState

	status    string
	statusErr bool
}

func newAppModel(opts Options) appModel {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.IndicatorCap <= 0 {
		opts.IndicatorCap = calendar.DefaultIndicatorCap
	}
	if opts.PollEvery <= 0 {
		opts.PollEvery = defaultPollEvery
	}
	m := appModel{opts: opts, keys: defaultKeyMap(), view: viewMonth}
	today := m.today()
	m.selected = today
	m.month = calendar.MonthStart(today)
	m.upYear = today.Year
	m.refresh()
	return m
}

func (m appModel) now() time.Time { return m.opts.Now().In(m.opts.Location) }

func (m appModel) today() model.Date { return model.DateOf(m.now()) }

// refresh copies the directory's collection into the model and clamps cursors.
func (m *appModel) refresh() {
	m.events = m.opts.Directory.Events()
	if n := len(m.sideEvents()); m.highlight >= n {
		m.highlight = max(0, n-1)
	}
	if n := len(m.upcomingEvents()); m.upCursor >= n {
		m.upCursor = max(0, n-1)
	}
	if m.view == viewDetail {
		if _, ok := model.FindEvent(m.events, m.detailID); !ok {
			m.view = viewMonth
			m.setStatus("Event not found.", true)
		}
	}
}

func (m *appModel) setStatus(msg string, isErr bool) {
	m.status = msg
	m.statusErr = isErr
}

func (m appModel) Init() tea.Cmd { return m.tickReload() }

func (m appModel) tickReload() tea.Cmd {
	return tea.Tick(m.opts.PollEvery, func(time.Time) tea.Msg { return reloadTickMsg{} })
}

func (m appModel) reloadCmd(force bool) tea.Cmd {
	dir := m.opts.Directory
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if !force {
			changed, err := dir.ReloadIfChanged(ctx)
			return reloadedMsg{changed: changed, err: err}
		}
		if err := dir.Reload(ctx); err != nil {
			return reloadedMsg{err: err}
		}
		return reloadedMsg{changed: true}
	}
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if m.form != nil {
			m.form.setWidth(m.width)
		}
		return m, nil

	case reloadTickMsg:
		return m, tea.Batch(m.reloadCmd(false), m.tickReload())

	case reloadedMsg:
		if msg.err != nil {
			m.setStatus("reload failed: "+msg.err.Error(), true)
			return m, nil
		}
		if msg.changed {
			m.refresh()
		}
		return m, nil

	case mutationDoneMsg:
		return m.handleMutationDone(msg), nil

	case clipboardDoneMsg:
		if msg.err != nil {
			m.setStatus("copy failed: "+msg.err.Error(), true)
		} else {
			m.setStatus("Copied "+msg.text, false)
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.confirm != nil {
			return m.updateConfirm(msg)
		}
		switch m.view {
		case viewForm:
			return m.updateForm(msg)
		case viewDetail:
			return m.updateDetail(msg)
		case viewUpcoming:
			return m.updateUpcoming(msg)
		case viewHelp:
			if key.Matches(msg, m.keys.Back, m.keys.Help, m.keys.Quit) {
				m.view = m.backView
			}
			return m, nil
		default:
			return m.updateMonth(msg)
		}
	}
	return m, nil
}

func (m appModel) handleMutationDone(msg mutationDoneMsg) appModel {
	if msg.err != nil {
		var ve mutate.ValidationError
		var nf mutate.NotFoundError
		switch {
		case errors.As(msg.err, &ve):
			m.setStatus(ve.Message, true)
		case errors.As(msg.err, &nf):
			m.setStatus("Event not found.", true)
		case errors.Is(msg.err, store.ErrConflict):
			m.setStatus("Events changed in another process; reloaded. Try again.", true)
		default:
			m.setStatus(msg.err.Error(), true)
		}
		// A failed save keeps the form open with its input.
		if m.form != nil {
			m.view = viewForm
		}
		m.refresh()
		return m
	}

	m.form = nil
	switch msg.op {
	case "add":
		m.setStatus("Event added successfully!", false)
		m.selected = msg.event.Date
		m.month = calendar.MonthStart(msg.event.Date)
		m.view = viewMonth
	case "update":
		m.setStatus("Event updated successfully!", false)
		m.view = m.backView
		if m.view == viewForm {
			m.view = viewMonth
		}
	case "delete":
		m.setStatus("Event deleted successfully!", false)
		if m.view == viewDetail {
			m.view = viewMonth
		}
	}
	m.refresh()
	return m
}

func (m appModel) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	c := *m.confirm
	switch msg.String() {
	case "y", "Y":
		m.confirm = nil
		return m, m.deleteCmd(c.eventID)
	case "n", "N", "esc":
		m.confirm = nil
		m.setStatus("", false)
		return m, nil
	case "tab", "shift+tab", "left", "right", "h", "l":
		if c.focus == confirmFocusConfirm {
			c.focus = confirmFocusCancel
		} else {
			c.focus = confirmFocusConfirm
		}
		m.confirm = &c
		return m, nil
	case "enter":
		m.confirm = nil
		if c.focus == confirmFocusConfirm {
			return m, m.deleteCmd(c.eventID)
		}
		return m, nil
	}
	return m, nil
}

func (m *appModel) askDelete(e model.Event) {
	m.confirm = &confirmState{
		eventID: e.ID,
		title:   "Delete event",
		body:    "Delete \"" + e.Title + "\"? This cannot be undone.",
		focus:   confirmFocusCancel,
	}
}

func (m appModel) deleteCmd(id string) tea.Cmd {
	svc := m.opts.Service
	return func() tea.Msg {
		e, err := svc.Delete(context.Background(), id)
		return mutationDoneMsg{op: "delete", event: e, err: err}
	}
}

func (m appModel) copyCmd(text string) tea.Cmd {
	return func() tea.Msg {
		return clipboardDoneMsg{text: text, err: copyToClipboard(text)}
	}
}

func (m appModel) openHelp() appModel {
	m.backView = m.view
	m.view = viewHelp
	return m
}

func (m appModel) View() string {
	var body string
	switch m.view {
	case viewUpcoming:
		body = m.viewUpcoming()
	case viewDetail:
		body = m.viewDetail()
	case viewForm:
		body = m.viewForm()
	case viewHelp:
		body = m.viewHelp()
	default:
		body = m.viewMonth()
	}
	if m.confirm != nil {
		return overlayCenter(m.width, m.height, renderConfirmModal(m.width, *m.confirm))
	}
	if m.status != "" {
		body += "\n" + styleStatus(m.statusErr).Render(m.status)
	}
	return body
}
