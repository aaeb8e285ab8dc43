package views

import (
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/rivo/tview"
	"github.com/shtorm-im/shtorm/internal/transport"
	"github.com/shtorm-im/shtorm/internal/tui/ui"
)

// ProfileView shows the current user's profile and a share QR code
// encoding the phone number.
type ProfileView struct {
	*tview.TextView
}

// NewProfileView creates the profile pane.
func NewProfileView(theme *ui.Theme) *ProfileView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTitle(" Profile ")
	tv.SetTitleColor(theme.TitleColor)

	return &ProfileView{TextView: tv}
}

// Update renders the profile of the given user.
func (pv *ProfileView) Update(user *transport.User) {
	pv.Clear()
	if user == nil {
		_, _ = fmt.Fprint(pv, "\n  Not signed in.")
		return
	}

	_, _ = fmt.Fprintf(pv, "\n  %s [::b]%s[-:-:-]\n\n", sanitizeForTerminal(user.Avatar), tview.Escape(sanitizeForTerminal(user.Name)))
	_, _ = fmt.Fprintf(pv, "  Phone:  %s\n", user.Phone)
	_, _ = fmt.Fprintf(pv, "  Status: %s\n\n", tview.Escape(sanitizeForTerminal(user.Status)))
	_, _ = fmt.Fprintf(pv, "  Share your number:\n\n%s", renderQR(user.Phone))
}

// renderQR converts a string to a compact ASCII QR code using Unicode
// half-block characters.
func renderQR(content string) string {
	qr, err := qrcode.New(content, qrcode.Low)
	if err != nil {
		return "  (QR generation failed: " + err.Error() + ")"
	}
	qr.DisableBorder = false

	bitmap := qr.Bitmap()
	rows := len(bitmap)
	cols := 0
	if rows > 0 {
		cols = len(bitmap[0])
	}

	var sb strings.Builder

	for y := 0; y < rows; y += 2 {
		sb.WriteString("  ")
		for x := 0; x < cols; x++ {
			top := bitmap[y][x]
			bot := false
			if y+1 < rows {
				bot = bitmap[y+1][x]
			}
			switch {
			case top && bot:
				sb.WriteRune('█')
			case top && !bot:
				sb.WriteRune('▀')
			case !top && bot:
				sb.WriteRune('▄')
			default:
				sb.WriteRune(' ')
			}
		}
		sb.WriteRune('\n')
	}

	return sb.String()
}
