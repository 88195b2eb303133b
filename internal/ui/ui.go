// Package ui renders the interactive dialogs, the status bar and the
// keyboard reader of the player.
package ui

import (
	"errors"
	"image"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/glebovdev/bcradio-cli/internal/config"
	"github.com/glebovdev/bcradio-cli/internal/radio"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"
)

const (
	ListWidth      = 96
	MaxListHeight  = 20
	InputWidth     = 60
	MinModalHeight = 7
	MaxModalHeight = 38
)

// UI shows one modal dialog at a time, each in its own tview application
// that releases the terminal when the dialog closes.
type UI struct {
	config *config.Config
	// newScreen overrides the terminal screen, for tests.
	newScreen func() (tcell.Screen, error)

	mu     sync.Mutex
	colors struct {
		background      tcell.Color
		foreground      tcell.Color
		borders         tcell.Color
		highlight       tcell.Color
		modalBackground tcell.Color
		dim             tcell.Color
	}
}

func NewUI(cfg *config.Config) *UI {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	ui := &UI{config: cfg}
	ui.colors.background = config.GetColor(cfg.Theme.Background)
	ui.colors.foreground = config.GetColor(cfg.Theme.Foreground)
	ui.colors.borders = config.GetColor(cfg.Theme.Borders)
	ui.colors.highlight = config.GetColor(cfg.Theme.Highlight)
	ui.colors.modalBackground = config.GetColor(cfg.Theme.ModalBackground)
	ui.colors.dim = config.GetColor(cfg.Theme.Dim)
	return ui
}

// dialog is a single modal run. Esc cancels it and Ctrl-C interrupts it.
type dialog struct {
	app *tview.Application
	err error
}

func (ui *UI) newDialog() *dialog {
	return &dialog{app: tview.NewApplication()}
}

func (d *dialog) finish(err error) {
	d.err = err
	d.app.Stop()
}

func (d *dialog) capture(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyCtrlC:
		d.finish(radio.ErrInterrupted)
		return nil
	case tcell.KeyEscape:
		d.finish(radio.ErrCancelled)
		return nil
	}
	return event
}

func (ui *UI) run(d *dialog, root, focus tview.Primitive) error {
	ui.mu.Lock()
	defer ui.mu.Unlock()

	if ui.newScreen != nil {
		screen, err := ui.newScreen()
		if err != nil {
			return err
		}
		d.app.SetScreen(screen)
	}

	bgStyle := tcell.StyleDefault.Background(ui.colors.background)
	d.app.SetBeforeDrawFunc(func(screen tcell.Screen) bool {
		screen.SetStyle(bgStyle)
		screen.Clear()
		return false
	})
	d.app.SetInputCapture(d.capture)
	d.app.SetRoot(root, true).SetFocus(focus)

	if err := d.app.Run(); err != nil {
		return err
	}
	return d.err
}

// Select lists options and returns the chosen index. j and k move the
// cursor.
func (ui *UI) Select(title string, options []string) (int, error) {
	if len(options) == 0 {
		return 0, radio.ErrCancelled
	}

	d := ui.newDialog()
	selected := -1
	list := ui.selectList(d, title, options, func(i int) { selected = i })

	height := len(options) + 2
	if height > MaxListHeight {
		height = MaxListHeight
	}
	if err := ui.run(d, ui.centered(list, ListWidth, height), list); err != nil {
		return 0, err
	}
	if selected < 0 {
		return 0, radio.ErrCancelled
	}
	log.Debug().Str("title", title).Int("selected", selected).Msg("Option selected")
	return selected, nil
}

// Input reads one line of text.
func (ui *UI) Input(title string) (string, error) {
	d := ui.newDialog()
	var text string
	field := ui.inputField(d, title, func(s string) { text = s })

	if err := ui.run(d, ui.centered(field, InputWidth, 3), field); err != nil {
		return "", err
	}
	return text, nil
}

// Show displays lines, with img beside them when set, until a key is
// pressed.
func (ui *UI) Show(title string, lines []string, img image.Image) error {
	d := ui.newDialog()
	root, focus := ui.infoModal(d, title, lines, img)

	err := ui.run(d, root, focus)
	if errors.Is(err, radio.ErrCancelled) {
		return nil
	}
	return err
}

// Message shows text until a key is pressed.
func (ui *UI) Message(text string) {
	d := ui.newDialog()
	root, focus := ui.messageModal(d, text)

	if err := ui.run(d, root, focus); err != nil && !errors.Is(err, radio.ErrCancelled) {
		log.Warn().Err(err).Msg("Message dialog failed")
	}
}

// Error is Message for failures: network errors are rewritten into a hint.
func (ui *UI) Error(err error) {
	ui.Message(friendlyErrorMessage(err.Error()))
}

func (ui *UI) selectList(d *dialog, title string, options []string, onSelect func(int)) *tview.List {
	list := tview.NewList().
		ShowSecondaryText(false).
		SetHighlightFullLine(true).
		SetMainTextColor(ui.colors.foreground).
		SetSelectedTextColor(ui.colors.background).
		SetSelectedBackgroundColor(ui.colors.highlight)
	list.SetBackgroundColor(ui.colors.modalBackground)
	list.SetBorder(true).
		SetBorderColor(ui.colors.borders).
		SetTitle(" " + tview.Escape(title) + " ").
		SetTitleColor(ui.colors.highlight).
		SetTitleAlign(tview.AlignLeft)

	for _, option := range options {
		list.AddItem(tview.Escape(option), "", 0, nil)
	}

	list.SetSelectedFunc(func(i int, _ string, _ string, _ rune) {
		onSelect(i)
		d.finish(nil)
	})

	list.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() != tcell.KeyRune {
			return event
		}
		switch event.Rune() {
		case 'j':
			return tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModNone)
		case 'k':
			return tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone)
		}
		return event
	})
	return list
}

func (ui *UI) inputField(d *dialog, title string, onDone func(string)) *tview.InputField {
	field := tview.NewInputField().
		SetLabel("> ").
		SetLabelColor(ui.colors.highlight).
		SetFieldTextColor(ui.colors.foreground).
		SetFieldBackgroundColor(ui.colors.modalBackground)
	field.SetBackgroundColor(ui.colors.modalBackground)
	field.SetBorder(true).
		SetBorderColor(ui.colors.borders).
		SetTitle(" " + tview.Escape(title) + " ").
		SetTitleColor(ui.colors.highlight).
		SetTitleAlign(tview.AlignLeft)

	field.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter {
			onDone(strings.TrimSpace(field.GetText()))
			d.finish(nil)
		}
	})
	return field
}
