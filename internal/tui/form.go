package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harrysoftwarecorp/route-nest/internal/stopform"
)

type formField int

const (
	fieldName formField = iota
	fieldDescription
	fieldLatitude
	fieldLongitude
	fieldArrival
	fieldDuration
	fieldStopType
	fieldPriority
	fieldCost
	fieldNotes
	numFormFields
)

var fieldLabels = [numFormFields]string{
	"Name", "Description", "Latitude", "Longitude", "Arrival",
	"Duration", "Type", "Priority", "Cost", "Notes",
}

// validation keys of the fields that have one.
var fieldKeys = map[formField]stopform.Field{
	fieldName:      stopform.FieldName,
	fieldLatitude:  stopform.FieldLatitude,
	fieldLongitude: stopform.FieldLongitude,
	fieldArrival:   stopform.FieldArrival,
	fieldDuration:  stopform.FieldDuration,
	fieldStopType:  stopform.FieldStopType,
	fieldPriority:  stopform.FieldPriority,
	fieldCost:      stopform.FieldCost,
}

// choice fields are changed with left and right instead of typed.
func (f formField) choice() bool {
	return f == fieldDuration || f == fieldStopType || f == fieldPriority
}

// stopFormView holds the inputs of the stop dialog. The values live in the
// stopform.Form; the inputs mirror them for editing.
type stopFormView struct {
	inputs [numFormFields]textinput.Model
	focus  formField
	errs   map[stopform.Field]string
}

func newStopFormView() stopFormView {
	var v stopFormView
	for i := range v.inputs {
		in := newInput("")
		in.CharLimit = 200
		v.inputs[i] = in
	}
	v.inputs[fieldName].Placeholder = "Stop name"
	v.inputs[fieldLatitude].Placeholder = "10.776900"
	v.inputs[fieldLongitude].Placeholder = "106.700900"
	v.inputs[fieldArrival].Placeholder = stopform.ArrivalLayout
	v.inputs[fieldCost].Placeholder = "optional"
	return v
}

// load copies the form values into the inputs and focuses the name.
func (v *stopFormView) load(vals stopform.Values) tea.Cmd {
	v.errs = nil
	v.inputs[fieldName].SetValue(vals.Name)
	v.inputs[fieldDescription].SetValue(vals.Description)
	v.inputs[fieldLatitude].SetValue(vals.Latitude)
	v.inputs[fieldLongitude].SetValue(vals.Longitude)
	v.inputs[fieldArrival].SetValue(vals.Arrival.Local().Format(stopform.ArrivalLayout))
	v.inputs[fieldCost].SetValue(vals.Cost)
	v.inputs[fieldNotes].SetValue(vals.Notes)
	return v.setFocus(fieldName)
}

func (v *stopFormView) setFocus(f formField) tea.Cmd {
	for i := range v.inputs {
		v.inputs[i].Blur()
	}
	v.focus = f
	if f.choice() {
		return nil
	}
	return v.inputs[f].Focus()
}

func (v *stopFormView) move(step int) tea.Cmd {
	n := int(numFormFields)
	return v.setFocus(formField(((int(v.focus)+step)%n + n) % n))
}

// apply pushes one text input into the form. It returns the arrival parse
// error, if any.
func (v *stopFormView) apply(form *stopform.Form, f formField) error {
	val := v.inputs[f].Value()
	switch f {
	case fieldName:
		form.SetName(val)
	case fieldDescription:
		form.SetDescription(val)
	case fieldLatitude:
		form.SetLatitude(val)
	case fieldLongitude:
		form.SetLongitude(val)
	case fieldArrival:
		return form.SetArrivalText(val)
	case fieldCost:
		form.SetCost(val)
	case fieldNotes:
		form.SetNotes(val)
	}
	return nil
}

// openForm switches to the dialog, which the detail controller has already
// opened.
func (m *Model) openForm() tea.Cmd {
	m.screen = screenForm
	m.notify("", nil)
	return m.form.load(m.detail.Form().Values())
}

// closeForm returns to the detail screen and drops the pending marker.
func (m *Model) closeForm() {
	m.detail.CloseDialog()
	if m.adapter != nil {
		m.adapter.ClearPending()
	}
	m.form.errs = nil
	m.screen = screenDetail
}

func (m *Model) updateForm(msg tea.KeyMsg) tea.Cmd {
	form := m.detail.Form()
	k := formKeyMap
	switch {
	case key.Matches(msg, k.Cancel):
		m.closeForm()
		return nil
	case key.Matches(msg, k.Submit):
		if err := m.form.apply(form, fieldArrival); err != nil {
			m.form.errs = map[stopform.Field]string{stopform.FieldArrival: "use " + stopform.ArrivalLayout}
			m.notify("", err)
			return nil
		}
		m.form.errs = nil
		detail := m.detail
		return mutation(m.ctx, actionSaveStop, func(ctx context.Context) error {
			return detail.SubmitStop(ctx)
		})
	case key.Matches(msg, k.Next):
		return m.form.move(1)
	case key.Matches(msg, k.Prev):
		return m.form.move(-1)
	}

	if m.form.focus.choice() {
		step := 0
		switch {
		case key.Matches(msg, k.Left):
			step = -1
		case key.Matches(msg, k.Right):
			step = 1
		}
		switch m.form.focus {
		case fieldDuration:
			form.StepDuration(step)
		case fieldStopType:
			form.CycleStopType(step)
		case fieldPriority:
			form.CyclePriority(step)
		}
		return nil
	}

	var cmd tea.Cmd
	f := m.form.focus
	m.form.inputs[f], cmd = m.form.inputs[f].Update(msg)
	// A half typed arrival is only reported on submit.
	_ = m.form.apply(form, f)
	return cmd
}

func (m *Model) formView() string {
	w, h := m.size()
	vals := m.detail.Form().Values()

	title := "Add stop"
	if vals.EditingID != 0 {
		title = "Edit stop"
	}
	var b strings.Builder
	b.WriteString(m.styles.title.Render(title))
	if st := m.detail.State(); st.Clicked != nil {
		b.WriteString(m.styles.muted.Render(fmt.Sprintf("  at %s, %s",
			stopform.FormatCoordinate(st.Clicked.Lat), stopform.FormatCoordinate(st.Clicked.Lng))))
	}
	b.WriteString("\n\n")

	for f := range numFormFields {
		label := m.styles.label
		if f == m.form.focus {
			label = m.styles.focused
		}
		b.WriteString(label.Render(fieldLabels[f]))
		b.WriteString(m.fieldValue(f, vals))
		if fk, ok := fieldKeys[f]; ok {
			if msg := m.form.errs[fk]; msg != "" {
				b.WriteString("  " + m.styles.errorText.Render(msg))
			}
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.styles.muted.Render("Departs " + vals.Departure.Local().Format(time.DateTime)))
	b.WriteString("\n")
	b.WriteString(m.footer(vals.Pending))
	b.WriteString("\n")
	k := formKeyMap
	b.WriteString(helpLine(m.styles, k.Next, k.Prev, k.Left, k.Submit, k.Cancel))

	dialog := m.styles.dialog.Render(b.String())
	return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, dialog)
}

func (m *Model) fieldValue(f formField, vals stopform.Values) string {
	switch f {
	case fieldDuration:
		return m.picker(stopform.FormatDuration(vals.Duration), f)
	case fieldStopType:
		opt := stopform.StopTypeOf(vals.StopType)
		return m.picker(opt.Emoji+" "+opt.Label, f)
	case fieldPriority:
		opt := stopform.PriorityOf(vals.Priority)
		return m.picker(toneStyle(opt.Tone).Render(opt.Label), f)
	}
	return m.form.inputs[f].View()
}

func (m *Model) picker(value string, f formField) string {
	if f == m.form.focus {
		return m.styles.selected.Render("‹ ") + value + m.styles.selected.Render(" ›")
	}
	return "  " + value
}
