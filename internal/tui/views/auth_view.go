package views

import (
	"github.com/rivo/tview"
	"github.com/shtorm-im/shtorm/internal/session"
	"github.com/shtorm-im/shtorm/internal/tui/ui"
)

// AuthStep identifies which part of the sign-in flow is shown.
type AuthStep int

const (
	StepPhone AuthStep = iota
	StepRegister
)

// AuthView is the sign-in screen. It starts by asking for a phone number;
// when the number is unknown to the server it switches to a registration
// form that keeps the phone and additionally asks for a name and avatar.
type AuthView struct {
	*tview.Flex

	form   *tview.Form
	status *tview.TextView
	step   AuthStep
	phone  string

	onLogin    func(phone string)
	onRegister func(phone, name, avatar string)
	onBack     func()
}

// NewAuthView creates the sign-in screen. onBack fires when the user leaves
// the registration form without completing it.
func NewAuthView(theme *ui.Theme, onLogin func(phone string), onRegister func(phone, name, avatar string), onBack func()) *AuthView {
	av := &AuthView{
		onLogin:    onLogin,
		onRegister: onRegister,
		onBack:     onBack,
	}

	av.form = tview.NewForm().
		SetFieldBackgroundColor(theme.BgColor).
		SetFieldTextColor(theme.FgColor).
		SetButtonBackgroundColor(theme.BorderColor)
	av.form.SetBorder(true)
	av.form.SetBorderColor(theme.BorderFocusColor)
	av.form.SetBackgroundColor(theme.BgColor)
	av.form.SetTitleColor(theme.TitleColor)

	av.status = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)

	av.Flex = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().
			AddItem(nil, 0, 1, false).
			AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
				AddItem(av.form, 0, 1, true).
				AddItem(av.status, 1, 0, false), 48, 0, true).
			AddItem(nil, 0, 1, false), 0, 2, true).
		AddItem(nil, 0, 1, false)

	av.ShowPhoneStep("")
	return av
}

// Step reports which step of the flow is currently shown.
func (av *AuthView) Step() AuthStep {
	return av.step
}

// ShowPhoneStep resets the view to the phone entry form.
func (av *AuthView) ShowPhoneStep(phone string) {
	av.step = StepPhone
	av.phone = phone
	av.status.SetText("")

	av.form.Clear(true)
	av.form.SetTitle(" Shtorm — Sign in ")
	av.form.AddInputField("Phone", phone, 24, nil, nil)
	av.form.AddButton("Continue", func() {
		item := av.form.GetFormItemByLabel("Phone").(*tview.InputField)
		av.onLogin(item.GetText())
	})
	av.form.SetFocus(0)
}

// ShowRegisterStep switches to the registration form, keeping the phone
// number that was just entered.
func (av *AuthView) ShowRegisterStep(phone string) {
	av.step = StepRegister
	av.phone = phone
	av.status.SetText("[yellow]Number not registered yet — create an account")

	av.form.Clear(true)
	av.form.SetTitle(" Shtorm — Register ")
	av.form.AddInputField("Phone", phone, 24, nil, nil)
	av.form.AddInputField("Name", "", 24, nil, nil)
	av.form.AddDropDown("Avatar", session.Avatars, 0, nil)
	av.form.AddButton("Create account", func() {
		phoneItem := av.form.GetFormItemByLabel("Phone").(*tview.InputField)
		nameItem := av.form.GetFormItemByLabel("Name").(*tview.InputField)
		avatarItem := av.form.GetFormItemByLabel("Avatar").(*tview.DropDown)
		_, avatar := avatarItem.GetCurrentOption()
		av.onRegister(phoneItem.GetText(), nameItem.GetText(), avatar)
	})
	av.form.AddButton("Back", func() {
		av.onBack()
		av.ShowPhoneStep(av.phone)
	})
	av.form.SetFocus(1)
}

// ShowError displays an inline error below the form.
func (av *AuthView) ShowError(msg string) {
	av.status.SetText("[red]" + tview.Escape(msg))
}

// ShowBusy displays a progress note while a request is in flight.
func (av *AuthView) ShowBusy(msg string) {
	av.status.SetText("[::d]" + tview.Escape(msg))
}
