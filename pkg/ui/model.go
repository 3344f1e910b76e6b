package ui

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/moonview/internal/store"
	"github.com/vanderheijden86/moonview/pkg/broadcast"
	"github.com/vanderheijden86/moonview/pkg/card"
	"github.com/vanderheijden86/moonview/pkg/debug"
	"github.com/vanderheijden86/moonview/pkg/loader"
	"github.com/vanderheijden86/moonview/pkg/model"
	"github.com/vanderheijden86/moonview/pkg/watcher"
)

// listHeaderHeight is the number of rows the bubbles list renders above the
// first item (title + padding). Used for mouse row hit-testing.
const listHeaderHeight = 2

const toastDuration = 4 * time.Second

// Messages produced by card callbacks and background work.
type (
	menuRequestMsg struct{ ctrl *card.Controller }
	cardChangedMsg struct{}
	cardDeletedMsg struct{ key model.CardKey }
	cardErrorMsg   struct{ err error }
	dbChangedMsg   struct{}
	favoritesMsg   struct {
		favs map[string]model.FavoriteRecord
		err  error
	}
	toastExpireMsg struct{}
	playingMsg     struct {
		target     card.PlayTarget
		newSession bool
	}
)

// ModelConfig assembles the UI model.
type ModelConfig struct {
	Cards   []loader.Card
	Service card.FavoritesService
	Store   *store.Store
	Hub     *broadcast.Hub
	Watcher *watcher.Watcher

	// PressThreshold and MoveTolerance tune the gesture resolver; zero
	// values use the card package defaults.
	PressThreshold time.Duration
	MoveTolerance  int
}

// Model is the top-level bubbletea model.
type Model struct {
	theme Theme
	list  list.Model
	sheet *actionSheet

	controllers []*card.Controller
	hub         *broadcast.Hub
	st          *store.Store
	watch       *watcher.Watcher

	msgCh chan tea.Msg

	// lastFavs is the previous store snapshot, used to publish removals
	// when an external process edits the database.
	lastFavs map[string]model.FavoriteRecord

	pressedIdx int // card index under an active press, -1 if none

	toast   string
	ready   bool
	width   int
	height  int
	closing bool
}

// NewModel builds the UI, creates and mounts a controller per card, and
// wires all controller callbacks into the bubbletea message loop.
func NewModel(cfg ModelConfig) *Model {
	m := &Model{
		theme:      DefaultTheme(lipgloss.DefaultRenderer()),
		hub:        cfg.Hub,
		st:         cfg.Store,
		watch:      cfg.Watcher,
		msgCh:      make(chan tea.Msg, 32),
		pressedIdx: -1,
	}

	items := make([]list.Item, 0, len(cfg.Cards))
	for _, c := range cfg.Cards {
		ctrl := card.New(card.Config{
			Key:            c.Key,
			Variant:        c.Variant,
			Props:          c.Props,
			Service:        cfg.Service,
			Hub:            cfg.Hub,
			Navigator:      &messageNavigator{send: m.send},
			PressThreshold: cfg.PressThreshold,
			MoveTolerance:  cfg.MoveTolerance,
			OnMenuRequest: func(ctrl *card.Controller) {
				m.send(menuRequestMsg{ctrl: ctrl})
			},
			OnDelete: func(key model.CardKey) {
				m.send(cardDeletedMsg{key: key})
			},
			OnError: func(err error) {
				m.send(cardErrorMsg{err: err})
			},
			OnChange: func() {
				m.send(cardChangedMsg{})
			},
		})
		ctrl.Mount()
		m.controllers = append(m.controllers, ctrl)
		items = append(items, CardItem{Ctrl: ctrl})
	}

	delegate := CardDelegate{Theme: m.theme}
	l := list.New(items, delegate, 0, 0)
	l.Title = "moonview"
	l.SetShowStatusBar(false)
	l.SetShowHelp(true)
	m.list = l

	if m.watch != nil {
		m.watch.SetOnChange(func() { m.send(dbChangedMsg{}) })
	}

	return m
}

// send feeds a message into the program loop without ever blocking a
// background goroutine; under pressure, redraw hints are droppable.
func (m *Model) send(msg tea.Msg) {
	select {
	case m.msgCh <- msg:
	default:
		if _, droppable := msg.(cardChangedMsg); !droppable {
			go func() { m.msgCh <- msg }()
		}
	}
}

func (m *Model) waitForMsg() tea.Cmd {
	return func() tea.Msg {
		return <-m.msgCh
	}
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.waitForMsg()}
	if m.watch != nil {
		w := m.watch
		cmds = append(cmds, func() tea.Msg {
			if err := w.Start(); err != nil {
				return cardErrorMsg{err: err}
			}
			return nil
		})
	}
	return tea.Batch(cmds...)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list.SetSize(msg.Width, msg.Height-2)
		m.ready = true
		return m, nil

	case tea.KeyMsg:
		return m.updateKeys(msg)

	case tea.MouseMsg:
		return m.updateMouse(msg)

	case menuRequestMsg:
		m.sheet = newActionSheet(msg.ctrl)
		return m, m.waitForMsg()

	case cardChangedMsg:
		if m.sheet != nil {
			m.sheet.refresh()
		}
		return m, m.waitForMsg()

	case cardDeletedMsg:
		m.removeCard(msg.key)
		if m.sheet != nil && m.sheet.ctrl.Key() == msg.key {
			m.closeSheet()
		}
		return m, m.waitForMsg()

	case cardErrorMsg:
		m.toast = msg.err.Error()
		return m, tea.Batch(m.waitForMsg(), toastExpireCmd())

	case playingMsg:
		where := ""
		if msg.newSession {
			where = " (new session)"
		}
		m.toast = fmt.Sprintf("Playing %s%s", msg.target.Title, where)
		return m, tea.Batch(m.waitForMsg(), toastExpireCmd())

	case dbChangedMsg:
		return m, tea.Batch(m.waitForMsg(), m.reloadFavoritesCmd())

	case favoritesMsg:
		if msg.err != nil {
			debug.Log("favorites reload failed: %v", msg.err)
			return m, nil
		}
		m.publishFavoritesDiff(msg.favs)
		return m, nil

	case toastExpireMsg:
		m.toast = ""
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.sheet != nil {
		switch msg.String() {
		case "up", "k":
			m.sheet.moveUp()
		case "down", "j":
			m.sheet.moveDown()
		case "enter":
			if m.sheet.invoke() {
				m.closeSheet()
			}
		case "esc", "q":
			m.closeSheet()
		}
		return m, nil
	}

	switch msg.String() {
	case "q", "ctrl+c":
		m.shutdown()
		return m, tea.Quit
	case "enter":
		if ctrl := m.selectedCtrl(); ctrl != nil {
			ctrl.Tap()
		}
		return m, nil
	case "m", "o":
		if ctrl := m.selectedCtrl(); ctrl != nil {
			ctrl.OpenMenu()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	// While the sheet is open, any click dismisses; long-press and
	// right-click on the covered list must not stack a second sheet (the
	// controller's re-entrancy guard also enforces this).
	if m.sheet != nil {
		if msg.Action == tea.MouseActionPress {
			m.closeSheet()
		}
		return m, nil
	}

	switch {
	case msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown:
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd

	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		if idx, ctrl := m.cardAt(msg.Y); ctrl != nil {
			m.list.Select(idx)
			m.pressedIdx = idx
			ctrl.HandlePressStart(msg.X, msg.Y)
		}

	case msg.Action == tea.MouseActionMotion:
		if ctrl := m.ctrlAtIndex(m.pressedIdx); ctrl != nil {
			ctrl.HandlePressMove(msg.X, msg.Y)
		}

	case msg.Action == tea.MouseActionRelease:
		if ctrl := m.ctrlAtIndex(m.pressedIdx); ctrl != nil {
			ctrl.HandleRelease()
		}
		m.pressedIdx = -1

	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonRight:
		if idx, ctrl := m.cardAt(msg.Y); ctrl != nil {
			m.list.Select(idx)
			ctrl.HandleSecondaryClick()
		}
	}
	return m, nil
}

func (m *Model) View() string {
	if !m.ready {
		return "Initializing…"
	}

	var body string
	if m.sheet != nil {
		body = m.sheet.view(m.theme, m.width)
	} else {
		body = m.list.View()
	}

	status := ""
	if m.toast != "" {
		status = m.theme.Toast.Render(m.toast)
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, status)
}

// selectedCtrl returns the controller behind the current list selection.
func (m *Model) selectedCtrl() *card.Controller {
	item, ok := m.list.SelectedItem().(CardItem)
	if !ok {
		return nil
	}
	return item.Ctrl
}

// cardAt maps a terminal row to the list index and controller under it.
func (m *Model) cardAt(y int) (int, *card.Controller) {
	row := y - listHeaderHeight
	if row < 0 {
		return -1, nil
	}
	perPage := m.list.Paginator.PerPage
	if perPage <= 0 || row >= perPage {
		return -1, nil
	}
	idx := m.list.Paginator.Page*perPage + row
	if ctrl := m.ctrlAtIndex(idx); ctrl != nil {
		return idx, ctrl
	}
	return -1, nil
}

func (m *Model) ctrlAtIndex(idx int) *card.Controller {
	items := m.list.Items()
	if idx < 0 || idx >= len(items) {
		return nil
	}
	item, ok := items[idx].(CardItem)
	if !ok {
		return nil
	}
	return item.Ctrl
}

func (m *Model) closeSheet() {
	if m.sheet == nil {
		return
	}
	m.sheet.ctrl.CloseMenu()
	m.sheet = nil
}

func (m *Model) removeCard(key model.CardKey) {
	items := m.list.Items()
	for i, it := range items {
		ci, ok := it.(CardItem)
		if !ok || ci.Ctrl.Key() != key {
			continue
		}
		ci.Ctrl.Unmount()
		m.list.RemoveItem(i)
		break
	}
}

// shutdown unmounts every controller and stops the watcher; subscriptions
// are released deterministically rather than left to process exit.
func (m *Model) shutdown() {
	if m.closing {
		return
	}
	m.closing = true
	if m.watch != nil {
		m.watch.Stop()
	}
	for _, ctrl := range m.controllers {
		ctrl.Unmount()
	}
}

// reloadFavoritesCmd re-reads favorites after an external database write.
func (m *Model) reloadFavoritesCmd() tea.Cmd {
	st := m.st
	if st == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		favs, err := st.Favorites(ctx)
		return favoritesMsg{favs: favs, err: err}
	}
}

// publishFavoritesDiff publishes what changed between store snapshots so
// mounted cards converge without each doing its own lookup.
func (m *Model) publishFavoritesDiff(favs map[string]model.FavoriteRecord) {
	if m.hub == nil {
		m.lastFavs = favs
		return
	}

	update := broadcast.Update{}
	for key, rec := range favs {
		prev, had := m.lastFavs[key]
		if !had || prev.SaveTime != rec.SaveTime {
			r := rec
			update[key] = &r
		}
	}
	for key := range m.lastFavs {
		if _, still := favs[key]; !still {
			update[key] = nil
		}
	}
	m.lastFavs = favs

	if len(update) > 0 {
		m.hub.Publish(broadcast.TopicFavoritesUpdated, update)
	}
}

func toastExpireCmd() tea.Cmd {
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return toastExpireMsg{}
	})
}

// messageNavigator reports navigation into the message loop. Playback
// itself is out of scope; external links open in the platform browser.
type messageNavigator struct {
	send func(tea.Msg)
}

func (n *messageNavigator) Play(t card.PlayTarget) error {
	n.send(playingMsg{target: t})
	return nil
}

func (n *messageNavigator) PlayInNewSession(t card.PlayTarget) error {
	n.send(playingMsg{target: t, newSession: true})
	return nil
}

func (n *messageNavigator) OpenURL(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
