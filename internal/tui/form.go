package tui

import (
	"context"
	"strings"

	"eventcal/internal/dateparse"
	"eventcal/internal/model"
	"eventcal/internal/mutate"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	fieldTitle = iota
	fieldDesc
	fieldDate
	fieldCategory
	fieldCount
)

var fieldLabels = [fieldCount]string{"Title", "Description", "Date", "Category"}

// eventForm edits one event. editID is empty when adding.
type eventForm struct {
	editID string
	inputs [fieldCount]textinput.Model
	focus  int
}

func newForm(width int) *eventForm {
	f := &eventForm{}
	for i := range f.inputs {
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 500
		f.inputs[i] = in
	}
	f.inputs[fieldTitle].Placeholder = "Team sync"
	f.inputs[fieldDesc].Placeholder = "Markdown is fine"
	f.inputs[fieldDesc].CharLimit = 4000
	f.inputs[fieldDate].Placeholder = "YYYY-MM-DD, tomorrow, next friday"
	f.inputs[fieldCategory].Placeholder = "Work | Personal | Entertainment | Others"
	f.setWidth(width)
	f.inputs[fieldTitle].Focus()
	return f
}

func newAddForm(day model.Date, width int) *eventForm {
	f := newForm(width)
	f.inputs[fieldDate].SetValue(day.String())
	return f
}

func newEditForm(e model.Event, width int) *eventForm {
	f := newForm(width)
	f.editID = e.ID
	f.inputs[fieldTitle].SetValue(e.Title)
	f.inputs[fieldDesc].SetValue(e.Desc)
	f.inputs[fieldDate].SetValue(e.Date.String())
	f.inputs[fieldCategory].SetValue(string(e.Category))
	return f
}

func (f *eventForm) setWidth(width int) {
	w := modalBodyWidth(width) - 2
	for i := range f.inputs {
		f.inputs[i].Width = w
	}
}

func (f *eventForm) focusCmd() tea.Cmd { return textinput.Blink }

func (f *eventForm) move(delta int) {
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + delta + fieldCount) % fieldCount
	f.inputs[f.focus].Focus()
}

func (f *eventForm) value(i int) string { return strings.TrimSpace(f.inputs[i].Value()) }

func (m appModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.form
	switch msg.String() {
	case "esc":
		m.form = nil
		m.view = m.backView
		if m.view == viewForm {
			m.view = viewMonth
		}
		m.setStatus("", false)
		return m, nil
	case "tab", "down":
		f.move(1)
		return m, nil
	case "shift+tab", "up":
		f.move(-1)
		return m, nil
	case "enter":
		if f.focus < fieldCount-1 {
			f.move(1)
			return m, nil
		}
		return m.submitForm()
	case "ctrl+s":
		return m.submitForm()
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return m, cmd
}

// submitForm resolves natural-language dates and hands the change to the
// service. An unparseable date keeps the form open.
func (m appModel) submitForm() (tea.Model, tea.Cmd) {
	f := m.form
	date, err := dateparse.Parse(f.value(fieldDate), m.now())
	if err != nil {
		m.setStatus("Invalid date format. Please use YYYY-MM-DD or a phrase like \"tomorrow\".", true)
		return m, nil
	}
	if _, ok := model.ParseCategory(f.value(fieldCategory)); !ok {
		m.setStatus("Unknown category "+f.value(fieldCategory)+".", true)
		return m, nil
	}
	dateStr := date.String()
	f.inputs[fieldDate].SetValue(dateStr)

	svc := m.opts.Service
	title, desc, category := f.value(fieldTitle), f.value(fieldDesc), f.value(fieldCategory)
	if f.editID == "" {
		draft := mutate.Draft{Title: title, Desc: desc, Date: dateStr, Category: category}
		return m, func() tea.Msg {
			e, err := svc.Add(context.Background(), draft)
			return mutationDoneMsg{op: "add", event: e, err: err}
		}
	}
	id := f.editID
	patch := mutate.Patch{Title: &title, Desc: &desc, Date: &dateStr, Category: &category}
	return m, func() tea.Msg {
		e, err := svc.Update(context.Background(), id, patch)
		return mutationDoneMsg{op: "update", event: e, err: err}
	}
}

func (m appModel) viewForm() string {
	f := m.form
	if f == nil {
		return ""
	}
	title := "Add Event"
	if f.editID != "" {
		title = "Edit Event"
	}
	bodyW := modalBodyWidth(m.width)
	var lines []string
	for i := range f.inputs {
		label := fieldLabels[i]
		if i == f.focus {
			label = styleTitle().Render(label)
		} else {
			label = styleMuted().Render(label)
		}
		lines = append(lines, label, renderInputLine(bodyW, f.inputs[i].View()), "")
	}
	lines = append(lines, styleMuted().Render("tab/shift+tab: field   enter: next/save   esc: cancel"))
	return renderModalBox(m.width, title, strings.Join(lines, "\n"))
}
