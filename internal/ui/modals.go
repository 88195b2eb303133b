package ui

import (
	"image"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
	"github.com/rivo/tview"
)

func friendlyErrorMessage(errStr string) string {
	if strings.Contains(errStr, "no such host") {
		return "Unable to connect to Bandcamp.\nPlease check your internet connection."
	}
	if strings.Contains(errStr, "connection refused") {
		return "Connection refused by server.\nThe service may be temporarily unavailable."
	}
	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded") {
		return "Connection timed out.\nPlease check your internet connection."
	}
	if strings.Contains(errStr, "network is unreachable") || strings.Contains(errStr, "network read error") {
		return "Network is unreachable.\nPlease check your internet connection."
	}
	if strings.Contains(errStr, "status 403") {
		return "Access forbidden by Bandcamp (403)."
	}
	if strings.Contains(errStr, "status 404") {
		return "Page not found (404)."
	}
	if strings.Contains(errStr, "status 429") {
		return "Too many requests (429).\nPlease wait a moment and try again."
	}

	if idx := strings.Index(errStr, ": dial"); idx > 0 {
		return errStr[:idx]
	}
	if len(errStr) > 100 {
		return errStr[:100] + "..."
	}
	return errStr
}

// centered places p in the middle of the screen.
func (ui *UI) centered(p tview.Primitive, width, height int) tview.Primitive {
	modal := tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(p, height, 0, true).
			AddItem(nil, 0, 1, false),
			width, 0, true).
		AddItem(nil, 0, 1, false)
	modal.SetBackgroundColor(ui.colors.background)
	return modal
}

func (ui *UI) hintView() *tview.TextView {
	hintView := tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetDynamicColors(true).
		SetText("[::d]Press any key to close[::-]")
	hintView.SetTextColor(ui.colors.dim)
	hintView.SetBackgroundColor(ui.colors.modalBackground)
	return hintView
}

func (ui *UI) framed(content tview.Primitive, title string, border tcell.Color) *tview.Frame {
	frame := tview.NewFrame(content).
		SetBorders(1, 0, 1, 1, 2, 2)
	frame.SetBorder(true).
		SetBorderColor(border).
		SetBackgroundColor(ui.colors.modalBackground).
		SetTitle(" " + tview.Escape(title) + " ").
		SetTitleColor(ui.colors.highlight).
		SetTitleAlign(tview.AlignCenter)
	return frame
}

// closeOnAnyKey finishes d on the first key that is not Esc or Ctrl-C.
func closeOnAnyKey(d *dialog) func(*tcell.EventKey) *tcell.EventKey {
	return func(event *tcell.EventKey) *tcell.EventKey {
		d.finish(nil)
		return nil
	}
}

func modalHeight(lines int) int {
	height := lines + 6
	if height < MinModalHeight {
		height = MinModalHeight
	}
	if height > MaxModalHeight {
		height = MaxModalHeight
	}
	return height
}

// infoModal lays out lines next to an optional image.
func (ui *UI) infoModal(d *dialog, title string, lines []string, img image.Image) (tview.Primitive, tview.Primitive) {
	textView := tview.NewTextView().
		SetTextAlign(tview.AlignLeft).
		SetWordWrap(true).
		SetText(strings.Join(lines, "\n"))
	textView.SetTextColor(ui.colors.foreground)
	textView.SetBackgroundColor(ui.colors.modalBackground)

	body := tview.NewFlex().SetDirection(tview.FlexColumn)
	body.SetBackgroundColor(ui.colors.modalBackground)

	width := textWidth(lines) + 8
	height := modalHeight(len(lines))

	if img != nil {
		imageWidth := ui.config.ImageWidth
		imageView := tview.NewImage().SetImage(img)
		imageView.SetBackgroundColor(ui.colors.modalBackground)
		body.AddItem(imageView, imageWidth, 0, false).
			AddItem(nil, 2, 0, false)
		width += imageWidth + 2
		if h := imageWidth/2 + 6; h > height {
			height = h
		}
	}
	body.AddItem(textView, 0, 1, true)

	content := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(body, 0, 1, true).
		AddItem(ui.hintView(), 1, 0, false)
	content.SetBackgroundColor(ui.colors.modalBackground)

	frame := ui.framed(content, title, ui.colors.borders)
	frame.SetInputCapture(closeOnAnyKey(d))

	return ui.centered(frame, width, height), frame
}

func (ui *UI) messageModal(d *dialog, message string) (tview.Primitive, tview.Primitive) {
	messageView := tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetText("\n" + message)
	messageView.SetTextColor(ui.colors.foreground)
	messageView.SetBackgroundColor(ui.colors.modalBackground)

	content := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(messageView, 0, 1, true).
		AddItem(ui.hintView(), 1, 0, false)
	content.SetBackgroundColor(ui.colors.modalBackground)

	frame := ui.framed(content, "bcradio", ui.colors.highlight)
	frame.SetInputCapture(closeOnAnyKey(d))

	lines := strings.Count(message, "\n") + 1
	return ui.centered(frame, 50, modalHeight(lines+1)), frame
}

func textWidth(lines []string) int {
	width := 0
	for _, l := range lines {
		if w := runewidth.StringWidth(l); w > width {
			width = w
		}
	}
	return width
}
