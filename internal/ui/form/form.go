// Package form is the interactive terminal form that collects one
// patient's clinical inputs.
package form

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/diacheck/internal/patient"
	"github.com/abhisek/diacheck/internal/ui/components"
	"github.com/abhisek/diacheck/internal/ui/layout"
	"github.com/abhisek/diacheck/internal/ui/theme"
)

// ErrCancelled is returned by Run when the user leaves the form.
var ErrCancelled = errors.New("form cancelled")

// Model is the Bubble Tea model of the form.
type Model struct {
	fields    []patient.Field
	inputs    []components.TextInput
	errs      []string
	focus     int
	submitted bool
	cancelled bool
	vector    patient.Vector
	width     int
}

// New creates a form prefilled with initial.
func New(initial patient.Vector) Model {
	fields := patient.Fields()
	m := Model{
		fields: fields,
		inputs: make([]components.TextInput, len(fields)),
		errs:   make([]string, len(fields)),
	}
	for i, f := range fields {
		b := patient.BoundsFor(f)
		placeholder := fmt.Sprintf("%s-%s", patient.FormatValue(f, b.Min), patient.FormatValue(f, b.Max))
		in := components.NewTextInput(placeholder, true, 8)
		in.Decimal = !f.Integral()
		in.SetValue(patient.FormatValue(f, initial.Value(f)))
		m.inputs[i] = in
	}
	m.inputs[0].Focus()
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit
		case "tab", "down":
			return m, m.move(1)
		case "shift+tab", "up":
			return m, m.move(-1)
		case "enter":
			if m.validate(m.focus) && m.focus < len(m.inputs)-1 {
				return m, m.move(1)
			}
			if m.focus == len(m.inputs)-1 {
				return m.submit()
			}
			return m, nil
		case "ctrl+s":
			return m.submit()
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *Model) move(delta int) tea.Cmd {
	m.inputs[m.focus].Blur()
	m.focus = (m.focus + delta + len(m.inputs)) % len(m.inputs)
	return m.inputs[m.focus].Focus()
}

// validate checks one field and records its error. It reports whether the
// value is acceptable.
func (m *Model) validate(i int) bool {
	f := m.fields[i]
	_, err := parseField(f, m.inputs[i].Value())
	if err != nil {
		m.errs[i] = err.Error()
		m.inputs[i].Submit(false)
		return false
	}
	m.errs[i] = ""
	m.inputs[i].Submit(true)
	return true
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	ok := true
	for i := range m.inputs {
		if !m.validate(i) {
			ok = false
		}
	}
	if !ok {
		return m, nil
	}

	values := make([]string, len(m.inputs))
	for i, in := range m.inputs {
		values[i] = in.Value()
	}
	v, err := patient.Parse(values)
	if err != nil {
		m.errs[m.focus] = err.Error()
		return m, nil
	}
	m.vector = v
	m.submitted = true
	return m, tea.Quit
}

func parseField(f patient.Field, raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, errors.New("required")
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", raw)
	}
	b := patient.BoundsFor(f)
	if val < b.Min || val > b.Max {
		return 0, fmt.Errorf("must be between %s and %s",
			patient.FormatValue(f, b.Min), patient.FormatValue(f, b.Max))
	}
	if f.Integral() && val != float64(int64(val)) {
		return 0, errors.New("must be a whole number")
	}
	return val, nil
}

func (m Model) View() tea.View {
	return tea.NewView(m.render())
}

var keyHints = []layout.KeyHint{
	{Key: "tab/↓", Description: "next"},
	{Key: "shift+tab/↑", Description: "previous"},
	{Key: "enter", Description: "next or submit"},
	{Key: "ctrl+s", Description: "submit"},
	{Key: "esc", Description: "cancel"},
}

func (m Model) render() string {
	var b strings.Builder
	status := fmt.Sprintf("field %d/%d", m.focus+1, len(m.fields))
	b.WriteString(layout.RenderHeader("Patient data", status, m.width))
	b.WriteString("\n\n")

	for i, f := range m.fields {
		label := theme.Label.Render(f.Label())
		if i == m.focus {
			label = theme.Selected.Width(28).Render("▸ " + f.Label())
		}
		b.WriteString(label + m.inputs[i].View())
		if m.errs[i] != "" {
			b.WriteString("  " + theme.ErrorText.Render(m.errs[i]))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(layout.RenderFooter(keyHints, m.width))

	content := b.String()
	if m.width > 0 {
		content = lipgloss.NewStyle().MaxWidth(m.width).Render(content)
	}
	return content
}

// Vector returns the submitted vector.
func (m Model) Vector() (patient.Vector, bool) {
	return m.vector, m.submitted
}

// Run shows the form and returns the entered vector, or ErrCancelled.
func Run(initial patient.Vector) (patient.Vector, error) {
	final, err := tea.NewProgram(New(initial)).Run()
	if err != nil {
		return patient.Vector{}, fmt.Errorf("run form: %w", err)
	}
	m, ok := final.(Model)
	if !ok || m.cancelled {
		return patient.Vector{}, ErrCancelled
	}
	v, done := m.Vector()
	if !done {
		return patient.Vector{}, ErrCancelled
	}
	return v, nil
}
