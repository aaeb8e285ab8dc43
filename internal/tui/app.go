package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"github.com/shtorm-im/shtorm/internal/bus"
	"github.com/shtorm-im/shtorm/internal/dispatch"
	"github.com/shtorm-im/shtorm/internal/session"
	"github.com/shtorm-im/shtorm/internal/status"
	synceng "github.com/shtorm-im/shtorm/internal/sync"
	"github.com/shtorm-im/shtorm/internal/transport"
	"github.com/shtorm-im/shtorm/internal/tui/keys"
	"github.com/shtorm-im/shtorm/internal/tui/model"
	"github.com/shtorm-im/shtorm/internal/tui/ui"
	"github.com/shtorm-im/shtorm/internal/tui/views"
)

// App is the main TUI application shell.
type App struct {
	app        *tview.Application
	pages      *tview.Pages
	registry   *keys.Registry
	flash      *model.Flash
	events     *bus.Bus
	sessions   *session.Manager
	engine     *synceng.Engine
	dispatcher *dispatch.Dispatcher
	logger     *zap.Logger

	statusBar   *views.StatusBar
	chatList    *views.ChatList
	msgView     *views.MessageView
	composer    *views.Composer
	contactList *views.ContactList
	profileView *views.ProfileView
	authView    *views.AuthView

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp creates the TUI application.
func NewApp(events *bus.Bus, sessions *session.Manager, engine *synceng.Engine, dispatcher *dispatch.Dispatcher, logger *zap.Logger, sessionName string) *App {
	ctx, cancel := context.WithCancel(context.Background())
	theme := ui.DefaultTheme()

	a := &App{
		app:         tview.NewApplication(),
		pages:       tview.NewPages(),
		registry:    keys.NewRegistry(),
		flash:       &model.Flash{},
		events:      events,
		sessions:    sessions,
		engine:      engine,
		dispatcher:  dispatcher,
		logger:      logger,
		statusBar:   views.NewStatusBar(),
		chatList:    views.NewChatList(theme),
		msgView:     views.NewMessageView(theme),
		contactList: views.NewContactList(theme),
		profileView: views.NewProfileView(theme),
		ctx:         ctx,
		cancel:      cancel,
	}

	a.composer = views.NewComposer(theme, a.onSend)
	a.authView = views.NewAuthView(theme, a.onLogin, a.onRegister, sessions.CancelRegistration)

	a.statusBar.SetSession(sessionName)
	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()

	return a
}

func (a *App) setupBindings() {
	a.registry.AddGlobal("quit", &keys.Action{
		Rune: 'q', Key: tcell.KeyRune,
		Description: "q:quit", Visible: true,
		Handler: func() { a.app.Stop() },
	})
	a.registry.AddPage("chats", "contacts", &keys.Action{
		Rune: 'c', Key: tcell.KeyRune,
		Description: "c:contacts", Visible: true,
		Handler: func() { a.showPage("contacts", a.contactList) },
	})
	a.registry.AddPage("chats", "profile", &keys.Action{
		Rune: 'p', Key: tcell.KeyRune,
		Description: "p:profile", Visible: true,
		Handler: func() {
			a.profileView.Update(a.sessions.Profile())
			a.showPage("profile", a.profileView)
		},
	})
	a.registry.AddPage("contacts", "new-chat", &keys.Action{
		Key:         tcell.KeyEnter,
		Description: "enter:chat", Visible: true,
		Handler: func() { a.openContact(a.contactList.SelectedContact()) },
	})
	a.registry.AddPage("contacts", "reload", &keys.Action{
		Rune: 'r', Key: tcell.KeyRune,
		Description: "r:reload", Visible: true,
		Handler: func() {
			go a.engine.RefreshContacts(a.ctx)
		},
	})
}

func (a *App) setupCallbacks() {
	a.chatList.SetSelectedFunc(func(row, col int) {
		id := a.chatList.SelectedChat()
		if id != "" {
			a.openChat(id)
		}
	})
}

func (a *App) setupLayout() {
	thread := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.msgView, 0, 1, false).
		AddItem(a.composer, 3, 0, false)

	chatsFlex := tview.NewFlex().
		AddItem(a.chatList, 0, 1, true).
		AddItem(thread, 0, 2, false)

	a.pages.AddPage("auth", a.authView, true, true)
	a.pages.AddPage("chats", chatsFlex, true, false)
	a.pages.AddPage("contacts", a.contactList, true, false)
	a.pages.AddPage("profile", a.profileView, true, false)

	root := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.statusBar, 1, 0, false)

	a.app.SetRoot(root, true)

	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		currentPage, _ := a.pages.GetFrontPage()

		if event.Key() == tcell.KeyEscape {
			switch currentPage {
			case "contacts", "profile":
				a.showPage("chats", a.chatList)
				return nil
			case "chats":
				if a.app.GetFocus() == a.composer.InputField {
					a.app.SetFocus(a.chatList)
					return nil
				}
			}
		}

		// Let text input widgets handle all keys normally.
		focused := a.app.GetFocus()
		if _, ok := focused.(*tview.InputField); ok {
			return event
		}
		if _, ok := focused.(*tview.DropDown); ok {
			return event
		}
		if _, ok := focused.(*tview.Button); ok && currentPage == "auth" {
			return event
		}

		// 'i' focuses the composer when a chat is open.
		if currentPage == "chats" && event.Key() == tcell.KeyRune && event.Rune() == 'i' {
			if a.engine.ActiveChat() != "" {
				a.app.SetFocus(a.composer.InputField)
				return nil
			}
		}

		if a.registry.HandleEvent(currentPage, event) {
			return nil
		}

		return event
	})
}

func (a *App) showPage(name string, focus tview.Primitive) {
	a.pages.SwitchToPage(name)
	a.app.SetFocus(focus)
	a.statusBar.SetHints(strings.Join(a.registry.Hints(name), " "))
}

func (a *App) openChat(id string) {
	go func() {
		a.engine.SelectChat(a.ctx, id)
		name := id
		if c := a.engine.Chat(id); c != nil {
			name = c.Name
		}
		a.app.QueueUpdateDraw(func() {
			a.msgView.SetChatName(name)
			a.msgView.Update(a.engine.Messages(id))
			a.app.SetFocus(a.composer.InputField)
		})
	}()
}

func (a *App) openContact(contactID int) {
	if contactID == 0 {
		return
	}
	go func() {
		if err := a.dispatcher.CreateChatWithContact(a.ctx, contactID); err != nil {
			a.flash.Set("Could not open chat: "+err.Error(), 5*time.Second)
			a.app.QueueUpdateDraw(func() {
				a.statusBar.SetFlash(a.flash.Get())
			})
		}
	}()
}

func (a *App) onSend(text string) {
	go func() {
		if err := a.dispatcher.SendMessage(a.ctx, text); err != nil {
			a.flash.Set("Send failed: "+err.Error(), 5*time.Second)
			a.app.QueueUpdateDraw(func() {
				a.statusBar.SetFlash(a.flash.Get())
			})
		}
	}()
}

func (a *App) onLogin(phone string) {
	a.authView.ShowBusy("Signing in...")
	go func() {
		err := a.sessions.Login(a.ctx, phone)
		a.app.QueueUpdateDraw(func() {
			switch {
			case err == nil:
				// Authenticated transition handles the page switch.
			case errors.Is(err, session.ErrNotRegistered):
				a.authView.ShowRegisterStep(phone)
			case errors.Is(err, session.ErrEmptyPhone):
				a.authView.ShowError("Enter a phone number")
			default:
				a.authView.ShowError(err.Error())
			}
		})
	}()
}

func (a *App) onRegister(phone, name, avatar string) {
	a.authView.ShowBusy("Creating account...")
	go func() {
		err := a.sessions.Register(a.ctx, phone, name, avatar)
		a.app.QueueUpdateDraw(func() {
			switch {
			case err == nil:
			case errors.Is(err, session.ErrEmptyPhone):
				a.authView.ShowError("Enter a phone number")
			case errors.Is(err, session.ErrEmptyName):
				a.authView.ShowError("Enter a name")
			default:
				var apiErr *transport.APIError
				if errors.As(err, &apiErr) {
					a.authView.ShowError(apiErr.Message)
				} else {
					a.authView.ShowError(err.Error())
				}
			}
		})
	}()
}

// Run starts the TUI application and blocks until it exits.
func (a *App) Run() error {
	a.logger.Debug("starting ui", zap.Bool("authenticated", a.sessions.Authenticated()))

	events, unsub := a.events.Subscribe("", 64)
	go a.eventLoop(events)
	defer unsub()

	go a.tickStatus()

	if a.sessions.Authenticated() {
		a.enterMain()
	} else {
		a.statusBar.SetStatus(string(status.Unauthenticated))
		a.showPage("auth", a.authView)
	}

	return a.app.Run()
}

// enterMain switches to the chat list and starts background sync.
func (a *App) enterMain() {
	a.engine.Start(a.ctx)
	a.statusBar.SetStatus(string(status.Authenticated))
	a.profileView.Update(a.sessions.Profile())
	a.showPage("chats", a.chatList)
}

func (a *App) eventLoop(events <-chan bus.Event) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			a.handleEvent(ev)
		case <-a.ctx.Done():
			return
		}
	}
}

func (a *App) handleEvent(ev bus.Event) {
	switch ev.Kind {
	case bus.KindStatusChanged:
		change, ok := ev.Payload.(status.StatusChange)
		if !ok {
			return
		}
		a.app.QueueUpdateDraw(func() {
			a.statusBar.SetStatus(string(change.To))
			if change.To == status.Authenticated {
				a.enterMain()
			}
		})
	case bus.KindChatsUpdated:
		a.app.QueueUpdateDraw(func() {
			a.chatList.Update(a.engine.Chats())
		})
	case bus.KindContactsUpdated:
		a.app.QueueUpdateDraw(func() {
			a.contactList.Update(a.engine.Contacts())
		})
	case bus.KindMessagesUpdated:
		chatID, _ := ev.Payload.(string)
		if chatID == "" || chatID != a.engine.ActiveChat() {
			return
		}
		a.app.QueueUpdateDraw(func() {
			if c := a.engine.Chat(chatID); c != nil {
				a.msgView.SetChatName(c.Name)
			}
			a.msgView.Update(a.engine.Messages(chatID))
		})
	case bus.KindPageSwitch:
		page, _ := ev.Payload.(string)
		if page == "" {
			return
		}
		a.app.QueueUpdateDraw(func() {
			focus := tview.Primitive(a.chatList)
			if page == "chats" && a.engine.ActiveChat() != "" {
				focus = a.composer.InputField
			}
			a.showPage(page, focus)
		})
	}
}

// tickStatus refreshes the clock and expires flash messages.
func (a *App) tickStatus() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			a.app.QueueUpdateDraw(func() {
				a.statusBar.SetFlash(a.flash.Get())
			})
		case <-a.ctx.Done():
			return
		}
	}
}

// Stop gracefully shuts down the TUI.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}
