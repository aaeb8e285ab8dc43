package views

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/shtorm-im/shtorm/internal/tui/ui"
)

// Composer is the single-line message input at the bottom of a chat.
type Composer struct {
	*tview.InputField
}

// NewComposer creates the input field. onSubmit receives the entered text
// when the user presses Enter; the field is cleared afterwards.
func NewComposer(theme *ui.Theme, onSubmit func(text string)) *Composer {
	input := tview.NewInputField().
		SetLabel(" > ").
		SetFieldBackgroundColor(theme.BgColor).
		SetFieldTextColor(theme.FgColor)
	input.SetBorder(true)
	input.SetBorderColor(theme.BorderColor)
	input.SetBackgroundColor(theme.BgColor)

	c := &Composer{InputField: input}
	input.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		text := input.GetText()
		input.SetText("")
		onSubmit(text)
	})
	return c
}
