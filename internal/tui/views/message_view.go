package views

import (
	"fmt"

	"github.com/rivo/tview"
	"github.com/shtorm-im/shtorm/internal/transport"
	"github.com/shtorm-im/shtorm/internal/tui/ui"
)

// MessageView displays the message thread of the open chat.
type MessageView struct {
	*tview.TextView
	theme    *ui.Theme
	chatName string
}

// NewMessageView creates a new message view.
func NewMessageView(theme *ui.Theme) *MessageView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTitle(" Messages ")
	tv.SetTitleColor(theme.TitleColor)

	return &MessageView{TextView: tv, theme: theme}
}

// SetChatName updates the title with the chat name.
func (mv *MessageView) SetChatName(name string) {
	mv.chatName = name
	mv.SetTitle(fmt.Sprintf(" %s ", sanitizeForTerminal(name)))
}

// Update replaces the displayed messages. Messages arrive oldest first.
func (mv *MessageView) Update(msgs []transport.Message) {
	mv.Clear()

	own := colorTag(mv.theme.OwnMessageColor)

	for _, m := range msgs {
		sender := mv.chatName
		color := ""
		if m.FromMe {
			sender = "You"
			color = own
		}
		lock := ""
		if m.Encrypted {
			lock = " 🔒"
		}
		ts := ""
		if !m.Timestamp.IsZero() {
			ts = m.Timestamp.Format("15:04")
		}

		line := fmt.Sprintf("%s[::b]%s[-:-:-] [::d]%s%s[-:-:-]\n%s\n\n",
			color, tview.Escape(sanitizeForTerminal(sender)), ts, lock,
			tview.Escape(sanitizeForTerminal(m.Text)))
		_, _ = fmt.Fprint(mv, line)
	}

	mv.ScrollToEnd()
}
