package views

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/shtorm-im/shtorm/internal/transport"
	"github.com/shtorm-im/shtorm/internal/tui/ui"
)

// ContactList shows the registered contacts of the current user.
type ContactList struct {
	*tview.Table
	theme    *ui.Theme
	contacts []transport.Contact
}

// NewContactList creates the contact table.
func NewContactList(theme *ui.Theme) *ContactList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetFixed(1, 0)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetTitle(" Contacts ")
	table.SetTitleColor(theme.TitleColor)

	return &ContactList{Table: table, theme: theme}
}

// Update replaces the displayed contacts.
func (cl *ContactList) Update(contacts []transport.Contact) {
	row, _ := cl.GetSelection()
	cl.Clear()
	cl.contacts = contacts

	cl.SetCell(0, 0, tview.NewTableCell(" CONTACT").
		SetSelectable(false).
		SetTextColor(cl.theme.TitleColor).
		SetAttributes(tcell.AttrBold).
		SetExpansion(1))
	cl.SetCell(0, 1, tview.NewTableCell(" STATUS").
		SetSelectable(false).
		SetTextColor(cl.theme.TitleColor).
		SetAttributes(tcell.AttrBold))

	for i, c := range contacts {
		name := fmt.Sprintf("%s %s", sanitizeForTerminal(c.Avatar), sanitizeForTerminal(c.Name))
		nameColor := cl.theme.FgColor
		if c.Online {
			name += " ●"
			nameColor = cl.theme.OnlineColor
		}
		cl.SetCell(i+1, 0, tview.NewTableCell(" "+tview.Escape(name)).
			SetExpansion(1).
			SetTextColor(nameColor))
		cl.SetCell(i+1, 1, tview.NewTableCell(" "+tview.Escape(sanitizeForTerminal(c.Status))).
			SetTextColor(cl.theme.FgColor))
	}

	cl.SetTitle(fmt.Sprintf(" Contacts (%d) ", len(contacts)))

	if row >= cl.GetRowCount() {
		row = cl.GetRowCount() - 1
	}
	if row < 1 {
		row = 1
	}
	if cl.GetRowCount() > 1 {
		cl.Select(row, 0)
	}
}

// SelectedContact returns the id of the highlighted contact, or 0 when
// the list is empty.
func (cl *ContactList) SelectedContact() int {
	row, _ := cl.GetSelection()
	idx := row - 1
	if idx < 0 || idx >= len(cl.contacts) {
		return 0
	}
	return cl.contacts[idx].ID
}
