package views

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/shtorm-im/shtorm/internal/transport"
	"github.com/shtorm-im/shtorm/internal/tui/ui"
)

// ChatList is the chat list table on the left of the chats page.
type ChatList struct {
	*tview.Table
	theme *ui.Theme
	chats []transport.Chat
}

// NewChatList creates a new chat list table.
func NewChatList(theme *ui.Theme) *ChatList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetTitle(" Chats ")
	table.SetTitleColor(theme.TitleColor)

	return &ChatList{Table: table, theme: theme}
}

// Update replaces the displayed chats.
func (cl *ChatList) Update(chats []transport.Chat) {
	cl.chats = chats
	cl.Clear()

	headers := []struct {
		text string
		exp  int
	}{
		{" NAME", 1},
		{" LAST MESSAGE", 2},
		{" TIME", 0},
	}
	for col, h := range headers {
		cl.SetCell(0, col, tview.NewTableCell(h.text).
			SetSelectable(false).
			SetTextColor(cl.theme.TitleColor).
			SetAttributes(tcell.AttrBold).
			SetExpansion(h.exp))
	}

	for i, chat := range chats {
		row := i + 1
		name := sanitizeForTerminal(chat.Avatar) + " " + sanitizeForTerminal(chat.Name)
		if chat.Online {
			name += " ●"
		}
		if chat.Unread > 0 {
			name = fmt.Sprintf("(%d) %s", chat.Unread, name)
		}

		nameColor := cl.theme.FgColor
		if chat.Unread > 0 {
			nameColor = cl.theme.UnreadColor
		}

		nameCell := tview.NewTableCell(" " + tview.Escape(name)).
			SetExpansion(1).
			SetTextColor(nameColor)
		cl.SetCell(row, 0, nameCell)
		cl.SetCell(row, 1, tview.NewTableCell(" "+tview.Escape(sanitizeForTerminal(chat.LastMessage))).
			SetExpansion(2).
			SetTextColor(cl.theme.FgColor))
		// Timestamp is already a server-formatted display string.
		cl.SetCell(row, 2, tview.NewTableCell(chat.Timestamp).
			SetTextColor(cl.theme.FgColor).
			SetAlign(tview.AlignRight))
	}

	cl.SetTitle(fmt.Sprintf(" Chats (%d) ", len(chats)))
}

// SelectedChat returns the id of the currently selected chat, or empty.
func (cl *ChatList) SelectedChat() string {
	row, _ := cl.GetSelection()
	idx := row - 1 // account for header
	if idx >= 0 && idx < len(cl.chats) {
		return cl.chats[idx].ID
	}
	return ""
}
