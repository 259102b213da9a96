package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type field struct {
	label  string
	secret bool
}

// form is a vertical stack of text inputs with a single focused field.
type form struct {
	title  string
	labels []string
	inputs []textinput.Model
	focus  int
}

func newForm(title string, fields ...field) form {
	f := form{title: title}
	for _, fl := range fields {
		in := textinput.New()
		in.Placeholder = fl.label
		in.CharLimit = 256
		in.Width = 40
		if fl.secret {
			in.EchoMode = textinput.EchoPassword
			in.EchoCharacter = '•'
		}
		f.labels = append(f.labels, fl.label)
		f.inputs = append(f.inputs, in)
	}
	f.focusAt(0)
	return f
}

func (f *form) focusAt(i int) {
	n := len(f.inputs)
	f.focus = ((i % n) + n) % n
	for j := range f.inputs {
		if j == f.focus {
			f.inputs[j].Focus()
		} else {
			f.inputs[j].Blur()
		}
	}
}

func (f *form) next() { f.focusAt(f.focus + 1) }
func (f *form) prev() { f.focusAt(f.focus - 1) }

func (f *form) values() []string {
	out := make([]string, len(f.inputs))
	for i, in := range f.inputs {
		out[i] = in.Value()
	}
	return out
}

func (f *form) reset() {
	for i := range f.inputs {
		f.inputs[i].Reset()
	}
	f.focusAt(0)
}

func (f *form) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f *form) view() string {
	var b strings.Builder
	b.WriteString(styles.title.Render(f.title))
	b.WriteString("\n")
	for i, in := range f.inputs {
		label := f.labels[i]
		if i == f.focus {
			label = styles.focus.Render(label)
		}
		b.WriteString(label + "\n" + in.View() + "\n\n")
	}
	return b.String()
}
