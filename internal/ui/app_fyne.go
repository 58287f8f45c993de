//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"path"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"canvasstudio/internal/crash"
	"canvasstudio/internal/dragdrop"
	"canvasstudio/internal/editor"
	"canvasstudio/internal/fonts"
	"canvasstudio/internal/icons"
	applog "canvasstudio/internal/log"
	"canvasstudio/internal/panel"
	"canvasstudio/internal/scene"
	"canvasstudio/internal/tools"
	"canvasstudio/internal/vector"
)

// Run opens the editor window on a built session and blocks until it closes.
func Run(a *editor.App) error {
	l := applog.WithComponent("ui")
	l.Info("starting UI")
	defer crash.Recover(a.Session)

	fyneApp := app.NewWithID("canvasstudio")
	w := fyneApp.NewWindow("Canvas Studio")
	// Restore window size from preferences (with sane minimums)
	prefs := fyneApp.Preferences()
	winW := max(prefs.IntWithFallback("window.width", 1280), 900)
	winH := max(prefs.IntWithFallback("window.height", 800), 600)
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	h := newHost(a.Session, w, l)
	a.Raster.OnFrame(func(f scene.Frame, img image.Image) {
		fyne.Do(func() {
			h.view.SetFrame(f, img)
			h.syncPanel()
		})
	})
	a.Session.Tools.OnChange(func(t tools.Tool) { fyne.Do(func() { h.showPalette(t) }) })
	if a.Session.Icons != nil {
		a.Session.Icons.OnResults(func(r icons.Results) { fyne.Do(func() { h.setIconResults(r) }) })
	}

	w.SetContent(h.layout())
	w.SetOnClosed(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		if _, err := a.Session.Save(context.Background()); err != nil && !errors.Is(err, editor.ErrNoStore) {
			l.Warn("save on close failed", slog.Any("err", err))
		}
	})
	a.Session.Canvas.RequestRender()
	w.ShowAndRun()
	return nil
}

// host wires the window's widgets to one session.
type host struct {
	sess *editor.Session
	win  fyne.Window
	log  *slog.Logger

	view     *DocumentView
	status   *widget.Label
	toolBtns map[tools.Tool]*widget.Button
	palette  *fyne.Container
	palettes map[tools.Tool]fyne.CanvasObject

	iconTiles  *fyne.Container
	iconStatus *widget.Label
	recent     *fyne.Container

	// updating suppresses widget callbacks while syncPanel writes values.
	updating bool

	widthEntry, heightEntry *widget.Entry
	lockCheck               *widget.Check
	fillEntry               *widget.Entry
	strokeEntry             *widget.Entry
	strokeSlider            *widget.Slider
	strokeBox               *fyne.Container
	textEntry               *widget.Entry
	fontSearch              *widget.Entry
	fontList                *widget.List
	fontRows                []panel.FontEntry
	sizeSelect              *widget.Select
	weightSelect            *widget.Select
	alignSelect             *widget.Select
	typographyBox           *fyne.Container
}

func newHost(s *editor.Session, w fyne.Window, l *slog.Logger) *host {
	h := &host{sess: s, win: w, log: l, toolBtns: map[tools.Tool]*widget.Button{}}
	h.view = NewDocumentView(s)
	h.view.OnPress = h.canvasPressed
	h.status = widget.NewLabel("Ready")
	return h
}

func (h *host) layout() fyne.CanvasObject {
	bar := container.NewHBox()
	for _, t := range tools.All {
		t := t
		b := widget.NewButton(toolLabel(t), func() { h.sess.PressTool(t) })
		h.toolBtns[t] = b
		bar.Add(b)
	}
	h.palettes = map[tools.Tool]fyne.CanvasObject{
		tools.Shapes: h.shapesPalette(),
		tools.Text:   h.textPalette(),
		tools.Icons:  h.iconsPalette(),
		tools.Images: h.imagesPalette(),
		tools.Pencil: h.pencilPalette(),
	}
	h.palette = container.NewStack()
	h.showPalette(h.sess.Tools.Active())

	left := container.NewVScroll(container.NewPadded(h.palette))
	left.SetMinSize(fyne.NewSize(220, 0))
	right := container.NewVScroll(container.NewPadded(h.propertiesPanel()))
	right.SetMinSize(fyne.NewSize(260, 0))
	h.syncPanel()
	return container.NewBorder(bar, h.status, left, right, h.view)
}

func toolLabel(t tools.Tool) string {
	s := t.String()
	return strings.ToUpper(s[:1]) + s[1:]
}

// canvasPressed closes an open popover; pencil and select stay active while
// the canvas is used.
func (h *host) canvasPressed() {
	switch h.sess.Tools.Active() {
	case tools.None, tools.Select, tools.Pencil:
	default:
		h.sess.OutsideClick()
	}
}

func (h *host) showPalette(t tools.Tool) {
	for tool, b := range h.toolBtns {
		if tool == t {
			b.Importance = widget.HighImportance
		} else {
			b.Importance = widget.MediumImportance
		}
		b.Refresh()
	}
	var content fyne.CanvasObject
	if p, ok := h.palettes[t]; ok {
		content = p
	} else if t == tools.None {
		content = widget.NewLabel("Pick a tool")
	} else {
		content = widget.NewLabel(toolLabel(t) + ": no options")
	}
	h.palette.Objects = []fyne.CanvasObject{content}
	h.palette.Refresh()
}

// click creates p at the document center.
func (h *host) click(p dragdrop.Payload) {
	if _, ok := h.sess.Click(context.Background(), p); !ok {
		h.status.SetText("Could not add " + p.String())
	}
}

// drop creates p where a palette tile was released over the canvas.
func (h *host) drop(p dragdrop.Payload, abs fyne.Position) {
	if !h.view.ContainsAbsolute(abs) {
		return
	}
	dt := dragdrop.NewMapTransfer()
	if err := dragdrop.Start(dt, p); err != nil {
		h.log.Warn("drag start failed", slog.Any("err", err))
		return
	}
	if _, ok := h.sess.Drop(context.Background(), dt, float64(abs.X), float64(abs.Y)); !ok {
		h.status.SetText("Could not add " + p.String())
	}
}

func (h *host) tile(label string, p dragdrop.Payload) fyne.CanvasObject {
	return NewPaletteTile(label, p, h.click, h.drop)
}

func (h *host) shapesPalette() fyne.CanvasObject {
	grid := container.NewGridWithColumns(2)
	for _, k := range vector.ShapeKinds {
		grid.Add(h.tile(string(k), dragdrop.Shape(k)))
	}
	return container.NewVBox(widget.NewLabel("Shapes"), grid)
}

func (h *host) textPalette() fyne.CanvasObject {
	return container.NewVBox(
		widget.NewLabel("Text"),
		h.tile("Add a heading", dragdrop.Text("Add a heading", fonts.Bold, 32)),
		h.tile("Add a subheading", dragdrop.Text("Add a subheading", fonts.SemiBold, 24)),
		h.tile("Add body text", dragdrop.Text("Add body text", fonts.Regular, 16)),
	)
}

func (h *host) iconsPalette() fyne.CanvasObject {
	if h.sess.Icons == nil {
		return widget.NewLabel("Icon search is not configured")
	}
	search := widget.NewEntry()
	search.SetPlaceHolder("Search icons")
	search.OnChanged = func(q string) { h.sess.Icons.Type(q) }
	h.iconStatus = widget.NewLabel("")
	h.iconTiles = container.NewGridWithColumns(2)
	return container.NewVBox(widget.NewLabel("Icons"), search, h.iconStatus, h.iconTiles)
}

func (h *host) setIconResults(r icons.Results) {
	if h.iconTiles == nil {
		return
	}
	h.iconTiles.RemoveAll()
	switch {
	case r.Err != nil:
		h.iconStatus.SetText("Search failed")
	case r.Query != "" && len(r.Icons) == 0:
		h.iconStatus.SetText("No icons found")
	default:
		h.iconStatus.SetText("")
	}
	for _, name := range r.Icons {
		h.iconTiles.Add(h.tile(name, h.sess.IconPayload(name)))
	}
	h.iconTiles.Refresh()
}

func (h *host) imagesPalette() fyne.CanvasObject {
	url := widget.NewEntry()
	url.SetPlaceHolder("https://…/picture.png")
	add := func() {
		u := strings.TrimSpace(url.Text)
		if u == "" {
			return
		}
		h.click(dragdrop.Image(u, path.Base(u)))
	}
	url.OnSubmitted = func(string) { add() }
	return container.NewVBox(widget.NewLabel("Images"), url, widget.NewButton("Add image", add))
}

func (h *host) pencilPalette() fyne.CanvasObject {
	b := h.sess.Tools.Brush()
	color := widget.NewEntry()
	color.SetText(b.Color.Hex())
	color.OnSubmitted = func(s string) {
		if err := h.sess.Tools.SetPencilColor(s); err != nil {
			h.status.SetText(err.Error())
			return
		}
		h.refreshRecent()
	}
	width := widget.NewSlider(1, 50)
	width.Value = b.Width
	width.OnChanged = func(v float64) { h.sess.Tools.SetPencilWidth(v) }
	h.recent = container.NewGridWithColumns(6)
	h.refreshRecent()
	return container.NewVBox(widget.NewLabel("Pencil"), color, widget.NewLabel("Width"), width, widget.NewLabel("Recent"), h.recent)
}

func (h *host) refreshRecent() {
	h.recent.RemoveAll()
	for _, c := range h.sess.Tools.RecentColors() {
		hex := c.Hex()
		h.recent.Add(swatch(c, func() { _ = h.sess.Tools.SetPencilColor(hex) }))
	}
	h.recent.Refresh()
}

func (h *host) section(s panel.Section, title string, body fyne.CanvasObject) fyne.CanvasObject {
	content := container.NewVBox(body)
	if !h.sess.Panel.Expanded(s) {
		content.Hide()
	}
	head := widget.NewButton(title, func() {
		if h.sess.Panel.Toggle(s) {
			content.Show()
		} else {
			content.Hide()
		}
	})
	head.Alignment = widget.ButtonAlignLeading
	head.Importance = widget.LowImportance
	return container.NewVBox(head, content)
}

func (h *host) propertiesPanel() fyne.CanvasObject {
	p := h.sess.Panel

	h.widthEntry = widget.NewEntry()
	h.heightEntry = widget.NewEntry()
	h.widthEntry.OnChanged = func(s string) {
		if !h.updating {
			p.SetWidth(atoi(s))
		}
	}
	h.heightEntry.OnChanged = func(s string) {
		if !h.updating {
			p.SetHeight(atoi(s))
		}
	}
	h.widthEntry.OnSubmitted = func(string) { p.Blur(); h.syncPanel() }
	h.heightEntry.OnSubmitted = func(string) { p.Blur(); h.syncPanel() }
	h.lockCheck = widget.NewCheck("Lock aspect ratio", func(bool) {
		if !h.updating {
			p.ToggleLock()
		}
	})
	presets := container.NewGridWithColumns(len(panel.Presets))
	for _, pr := range panel.Presets {
		name := pr.Name
		presets.Add(widget.NewButton(name, func() { p.ApplyPreset(name); h.syncPanel() }))
	}
	dims := container.NewVBox(
		container.NewGridWithColumns(2, widget.NewLabel("Width"), widget.NewLabel("Height"), h.widthEntry, h.heightEntry),
		h.lockCheck, presets,
	)

	swatches := container.NewGridWithColumns(8)
	for i, c := range panel.Swatches {
		i := i
		swatches.Add(swatch(c, func() { p.PickSwatch(i) }))
	}
	h.fillEntry = widget.NewEntry()
	h.fillEntry.SetPlaceHolder("#RRGGBB")
	h.fillEntry.OnSubmitted = func(s string) {
		if p.View().Active {
			p.SetFill(s)
		} else {
			p.SetBackground(s)
		}
	}
	appearance := container.NewVBox(swatches, h.fillEntry)

	h.strokeEntry = widget.NewEntry()
	h.strokeEntry.SetPlaceHolder("#RRGGBB")
	h.strokeEntry.OnSubmitted = func(s string) { p.SetStrokeColor(s) }
	h.strokeSlider = widget.NewSlider(0, 50)
	h.strokeSlider.OnChanged = func(v float64) {
		if !h.updating {
			p.SetStrokeWidth(v)
		}
	}
	h.strokeBox = container.NewVBox(h.strokeEntry, h.strokeSlider)

	h.textEntry = widget.NewEntry()
	h.textEntry.OnSubmitted = func(s string) { h.sess.Canvas.UpdateActiveObjectText(s) }
	h.fontSearch = widget.NewEntry()
	h.fontSearch.SetPlaceHolder("Search fonts")
	h.fontSearch.OnChanged = func(q string) { h.refreshFonts(q) }
	h.fontList = widget.NewList(
		func() int { return len(h.fontRows) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			if i < 0 || int(i) >= len(h.fontRows) {
				return
			}
			e := h.fontRows[i]
			label := e.Family
			if e.Loading {
				label += " (loading…)"
			}
			o.(*widget.Label).SetText(label)
		},
	)
	h.fontList.OnSelected = func(i widget.ListItemID) {
		if int(i) >= len(h.fontRows) {
			return
		}
		done, ok := p.SelectFont(context.Background(), h.fontRows[i].Family)
		h.fontList.UnselectAll()
		if !ok {
			return
		}
		h.refreshFonts(h.fontSearch.Text)
		go func() {
			<-done
			fyne.Do(func() { h.refreshFonts(h.fontSearch.Text) })
		}()
	}
	fontScroll := container.NewVScroll(h.fontList)
	fontScroll.SetMinSize(fyne.NewSize(0, 160))

	sizes := make([]string, len(panel.FontSizePresets))
	for i, s := range panel.FontSizePresets {
		sizes[i] = formatNum(s)
	}
	h.sizeSelect = widget.NewSelect(sizes, func(s string) {
		if !h.updating {
			v, _ := strconv.ParseFloat(s, 64)
			p.SetFontSize(v)
		}
	})
	weights := make([]string, len(fonts.Weights))
	for i, wt := range fonts.Weights {
		weights[i] = wt.String()
	}
	h.weightSelect = widget.NewSelect(weights, func(s string) {
		if h.updating {
			return
		}
		for _, wt := range fonts.Weights {
			if wt.String() == s {
				p.SetFontWeight(wt)
			}
		}
	})
	h.alignSelect = widget.NewSelect([]string{string(scene.AlignLeft), string(scene.AlignCenter), string(scene.AlignRight)}, func(s string) {
		if !h.updating {
			p.SetAlign(scene.Align(s))
		}
	})
	h.typographyBox = container.NewVBox(h.textEntry, h.fontSearch, fontScroll, h.sizeSelect, h.weightSelect, h.alignSelect)
	h.refreshFonts("")

	return container.NewVBox(
		h.section(panel.SectionDimensions, "Dimensions", dims),
		h.section(panel.SectionAppearance, "Appearance", appearance),
		h.section(panel.SectionStroke, "Stroke", h.strokeBox),
		h.section(panel.SectionTypography, "Typography", h.typographyBox),
	)
}

func (h *host) refreshFonts(q string) {
	h.fontRows = h.sess.Panel.FontEntries(q)
	h.fontList.Refresh()
}

// syncPanel writes the panel view into the widgets. Entries that hold focus
// keep what the user is typing.
func (h *host) syncPanel() {
	if h.widthEntry == nil {
		return
	}
	v := h.sess.Panel.View()
	h.updating = true
	defer func() { h.updating = false }()

	focused := h.win.Canvas().Focused()
	setEntry := func(e *widget.Entry, s string) {
		if focused != fyne.Focusable(e) && e.Text != s {
			e.SetText(s)
		}
	}
	setEntry(h.widthEntry, strconv.Itoa(v.Width))
	setEntry(h.heightEntry, strconv.Itoa(v.Height))
	h.lockCheck.SetChecked(v.Locked)
	if v.Active {
		setEntry(h.fillEntry, v.Fill)
		setEntry(h.strokeEntry, v.Stroke)
		h.strokeSlider.SetValue(v.StrokeWidth)
		h.strokeBox.Show()
	} else {
		setEntry(h.fillEntry, v.Background)
		h.strokeBox.Hide()
	}
	if v.Text {
		if o, ok := h.sess.Canvas.ActiveObject(); ok && o.Text != nil {
			setEntry(h.textEntry, o.Text.Content)
		}
		h.sizeSelect.SetSelected(formatNum(v.FontSize))
		h.weightSelect.SetSelected(v.FontWeight.String())
		h.alignSelect.SetSelected(string(v.Align))
		h.typographyBox.Show()
	} else {
		h.typographyBox.Hide()
	}
	h.status.SetText(fmt.Sprintf("%d × %d · %d objects · tool: %s",
		v.Width, v.Height, len(h.sess.Canvas.Snapshot().Objects), h.sess.Tools.Active()))
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func formatNum(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
