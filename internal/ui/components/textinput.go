package components

import (
	"strconv"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/diacheck/internal/ui/theme"
)

// TextInput wraps bubbles/textinput for numeric clinical values.
type TextInput struct {
	Model       textinput.Model
	NumericOnly bool
	// Decimal allows a single decimal point when NumericOnly is set.
	Decimal   bool
	MaxWidth  int
	submitted bool
	valid     bool
}

// NewTextInput creates a new styled text input. The input starts blurred;
// call Focus to activate it.
func NewTextInput(placeholder string, numericOnly bool, maxWidth int) TextInput {
	ti := textinput.New()
	ti.Placeholder = placeholder

	if maxWidth > 0 {
		ti.CharLimit = maxWidth
	}

	return TextInput{
		Model:       ti,
		NumericOnly: numericOnly,
		MaxWidth:    maxWidth,
	}
}

// Focus activates the input.
func (t *TextInput) Focus() tea.Cmd {
	return t.Model.Focus()
}

// Blur deactivates the input.
func (t *TextInput) Blur() {
	t.Model.Blur()
}

// Focused reports whether the input receives keys.
func (t TextInput) Focused() bool {
	return t.Model.Focused()
}

// Update handles messages.
func (t TextInput) Update(msg tea.Msg) (TextInput, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyMsg); ok {
		key := kmsg.String()
		if t.NumericOnly && len(key) == 1 && !t.accepts(key[0]) {
			return t, nil
		}
		t.submitted = false
	}

	var cmd tea.Cmd
	t.Model, cmd = t.Model.Update(msg)
	return t, cmd
}

func (t TextInput) accepts(c byte) bool {
	if c >= '0' && c <= '9' {
		return true
	}
	return c == '.' && t.Decimal && !strings.Contains(t.Model.Value(), ".")
}

// View renders the text input.
func (t TextInput) View() string {
	view := t.Model.View()
	if t.submitted {
		if t.valid {
			view += " " + theme.Good.Render("✓")
		} else {
			view += " " + theme.Bad.Render("✗")
		}
	}
	return view
}

// Value returns the current input value.
func (t TextInput) Value() string {
	return t.Model.Value()
}

// SetValue replaces the input value.
func (t *TextInput) SetValue(s string) {
	t.Model.SetValue(s)
}

// FloatValue parses the input value.
func (t TextInput) FloatValue() (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(t.Model.Value()), 64)
}

// Submit marks the input as submitted with a validation result.
func (t *TextInput) Submit(valid bool) {
	t.submitted = true
	t.valid = valid
}
