/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package hostapi exposes an editor session over HTTP/JSON for a browser host.
package hostapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"canvasstudio/internal/dragdrop"
	"canvasstudio/internal/editor"
	"canvasstudio/internal/fonts"
	applog "canvasstudio/internal/log"
	"canvasstudio/internal/panel"
	"canvasstudio/internal/render"
	"canvasstudio/internal/scene"
	"canvasstudio/internal/store"
	"canvasstudio/internal/tools"
	"canvasstudio/internal/vector"
	"canvasstudio/internal/version"
)

// Server routes host requests to one session.
type Server struct {
	app    *fiber.App
	sess   *editor.Session
	raster *render.Raster
	log    *slog.Logger
}

// New builds the fiber app. raster may be nil; the frame route then answers 404.
func New(sess *editor.Session, raster *render.Raster, logger *slog.Logger) *Server {
	s := &Server{sess: sess, raster: raster, log: applog.Or(logger, "hostapi")}
	s.app = fiber.New(fiber.Config{
		AppName:      "Canvas Studio " + version.String(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorHandler: s.errorHandler,
	})
	s.app.Use(recover.New())
	s.app.Use(s.requestLogger)
	s.routes()
	return s
}

// App exposes the fiber app, e.g. for tests.
func (s *Server) App() *fiber.App { return s.app }

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	s.log.Info("host api listening", slog.String("addr", addr))
	return s.app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
}

// Shutdown stops the server.
func (s *Server) Shutdown() error { return s.app.Shutdown() }

func (s *Server) requestLogger(c fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	s.log.Debug("request",
		slog.String("method", c.Method()),
		slog.String("path", c.Path()),
		slog.Int("status", c.Response().StatusCode()),
		slog.Duration("latency", time.Since(start)))
	return err
}

func (s *Server) errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		code = fe.Code
	case errors.Is(err, store.ErrNotFound):
		code = fiber.StatusNotFound
	case errors.Is(err, store.ErrInvalidID):
		code = fiber.StatusBadRequest
	case errors.Is(err, editor.ErrNoStore):
		code = fiber.StatusServiceUnavailable
	}
	if code >= fiber.StatusInternalServerError {
		s.log.Error("request failed", slog.String("path", c.Path()), slog.Any("err", err))
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

func (s *Server) routes() {
	s.app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "version": version.String()})
	})

	api := s.app.Group("/api")

	api.Get("/document", s.getDocument)
	api.Put("/document/size", s.putDocumentSize)
	api.Put("/document/background", s.putBackground)
	api.Post("/document/new", s.newDocument)
	api.Post("/document/save", s.saveDocument)
	api.Post("/document/open/:id", s.openDocument)
	api.Get("/frame.png", s.getFrame)

	api.Post("/drop", s.drop)
	api.Post("/click", s.click)
	api.Post("/select", s.selectAt)
	api.Post("/pointer/:phase", s.pointer)
	api.Post("/key", s.key)
	api.Post("/focus", s.focus)

	api.Get("/active", s.getActive)
	api.Delete("/active", s.deleteActive)
	api.Patch("/active/text", s.patchText)
	api.Post("/active/move", s.moveActive)

	api.Get("/tools", s.getTools)
	api.Post("/tools/dismiss", s.dismissTool)
	api.Post("/tools/:tool", s.pressTool)
	api.Put("/pencil", s.putPencil)

	api.Get("/panel", s.getPanel)
	api.Put("/panel/dimensions", s.putDimensions)
	api.Post("/panel/blur", s.blur)
	api.Post("/panel/lock", s.toggleLock)
	api.Post("/panel/preset/:name", s.preset)
	api.Post("/panel/swatch/:index", s.swatch)
	api.Put("/panel/fill", s.putFill)
	api.Put("/panel/stroke", s.putStroke)
	api.Put("/panel/font", s.putFont)
	api.Post("/panel/sections/:section", s.toggleSection)

	api.Get("/fonts", s.getFonts)
	api.Post("/icons/query", s.iconQuery)
	api.Get("/icons/results", s.iconResults)
}

// decode unmarshals the request body into v.
func decode(c fiber.Ctx, v any) error {
	if err := json.Unmarshal(c.Body(), v); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid JSON payload")
	}
	return nil
}

// changed answers 200 with the panel view when ok, 204 when the edit was a no-op.
func (s *Server) changed(c fiber.Ctx, ok bool) error {
	if !ok {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.JSON(s.sess.Panel.View())
}

func (s *Server) getDocument(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"id":       s.sess.DocumentID(),
		"document": s.sess.Canvas.Snapshot(),
		"activeId": s.sess.Canvas.ActiveID(),
	})
}

type sizeRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (s *Server) putDocumentSize(c fiber.Ctx) error {
	var req sizeRequest
	if err := decode(c, &req); err != nil {
		return err
	}
	ok := s.sess.Canvas.SetDocumentSize(req.Width, req.Height)
	if ok {
		s.sess.Panel.Sync()
	}
	return s.changed(c, ok)
}

type colorRequest struct {
	Color string `json:"color"`
}

func (s *Server) putBackground(c fiber.Ctx) error {
	var req colorRequest
	if err := decode(c, &req); err != nil {
		return err
	}
	return s.changed(c, s.sess.Panel.SetBackground(req.Color))
}

func (s *Server) newDocument(c fiber.Ctx) error {
	var req sizeRequest
	if len(c.Body()) > 0 {
		if err := decode(c, &req); err != nil {
			return err
		}
	}
	s.sess.NewDocument(req.Width, req.Height)
	return s.getDocument(c)
}

func (s *Server) saveDocument(c fiber.Ctx) error {
	id, err := s.sess.Save(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"id": id})
}

func (s *Server) openDocument(c fiber.Ctx) error {
	if err := s.sess.Open(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return s.getDocument(c)
}

func (s *Server) getFrame(c fiber.Ctx) error {
	if s.raster == nil {
		return fiber.ErrNotFound
	}
	s.sess.Canvas.RequestRender()
	s.sess.Canvas.Flush()
	b, err := s.raster.PNG()
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(b)
}

type dropRequest struct {
	// Data maps transfer formats to their string data.
	Data map[string]string `json:"data"`
	X    float64           `json:"x"`
	Y    float64           `json:"y"`
}

func (s *Server) drop(c fiber.Ctx) error {
	var req dropRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.SendStatus(fiber.StatusNoContent)
	}
	dt := dragdrop.NewMapTransfer()
	for k, v := range req.Data {
		dt.SetData(k, v)
	}
	id, ok := s.sess.Drop(c.Context(), dt, req.X, req.Y)
	if !ok {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
}

// click accepts a bare payload, or {"icon": name} for an icon search result.
func (s *Server) click(c fiber.Ctx) error {
	var icon struct {
		Icon string `json:"icon"`
	}
	var p dragdrop.Payload
	if err := json.Unmarshal(c.Body(), &icon); err == nil && icon.Icon != "" {
		p = s.sess.IconPayload(icon.Icon)
	} else {
		parsed, err := dragdrop.Parse(string(c.Body()))
		if err != nil {
			return c.SendStatus(fiber.StatusNoContent)
		}
		p = parsed
	}
	id, ok := s.sess.Click(c.Context(), p)
	if !ok {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
}

func (s *Server) selectAt(c fiber.Ctx) error {
	var pt vector.Pt
	if err := decode(c, &pt); err != nil {
		return err
	}
	id, _ := s.sess.Canvas.SelectAt(pt)
	return c.JSON(fiber.Map{"activeId": id})
}

func (s *Server) pointer(c fiber.Ctx) error {
	var pt vector.Pt
	if err := decode(c, &pt); err != nil {
		return err
	}
	switch c.Params("phase") {
	case "down":
		s.sess.Canvas.PointerDown(pt)
	case "move":
		s.sess.Canvas.PointerMove(pt)
	case "up":
		if id, ok := s.sess.Canvas.PointerUp(pt); ok {
			return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
		}
	default:
		return fiber.NewError(fiber.StatusNotFound, "unknown pointer phase")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) key(c fiber.Ctx) error {
	var req struct {
		Key string `json:"key"`
	}
	if err := decode(c, &req); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"handled": s.sess.KeyDown(req.Key)})
}

func (s *Server) focus(c fiber.Ctx) error {
	var req struct {
		Focused bool `json:"focused"`
	}
	if err := decode(c, &req); err != nil {
		return err
	}
	s.sess.SetFocused(req.Focused)
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) getActive(c fiber.Ctx) error {
	o, ok := s.sess.Canvas.ActiveObject()
	if !ok {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.JSON(o)
}

func (s *Server) deleteActive(c fiber.Ctx) error {
	if !s.sess.Canvas.RemoveActiveObject() {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return s.getDocument(c)
}

func (s *Server) patchText(c fiber.Ctx) error {
	var req struct {
		Content string `json:"content"`
	}
	if err := decode(c, &req); err != nil {
		return err
	}
	return s.changed(c, s.sess.Canvas.UpdateActiveObjectText(req.Content))
}

func (s *Server) moveActive(c fiber.Ctx) error {
	var d vector.Pt
	if err := decode(c, &d); err != nil {
		return err
	}
	return s.changed(c, s.sess.Canvas.MoveActiveObject(d.X, d.Y))
}

func (s *Server) toolsView(c fiber.Ctx) error {
	b := s.sess.Tools.Brush()
	return c.JSON(fiber.Map{
		"active":       s.sess.Tools.Active(),
		"drawing":      s.sess.Canvas.Drawing(),
		"pencilColor":  b.Color,
		"pencilWidth":  b.Width,
		"recentColors": s.sess.Tools.RecentColors(),
	})
}

func (s *Server) getTools(c fiber.Ctx) error { return s.toolsView(c) }

func (s *Server) pressTool(c fiber.Ctx) error {
	t, err := tools.ParseTool(c.Params("tool"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	s.sess.PressTool(t)
	return s.toolsView(c)
}

func (s *Server) dismissTool(c fiber.Ctx) error {
	var req struct {
		Reason string `json:"reason"`
	}
	_ = json.Unmarshal(c.Body(), &req)
	if req.Reason == "resize" {
		s.sess.Tools.Dismiss(tools.ViewportResize)
	} else {
		s.sess.OutsideClick()
	}
	return s.toolsView(c)
}

func (s *Server) putPencil(c fiber.Ctx) error {
	var req struct {
		Color string   `json:"color"`
		Width *float64 `json:"width"`
	}
	if err := decode(c, &req); err != nil {
		return err
	}
	if req.Color != "" {
		if err := s.sess.Tools.SetPencilColor(req.Color); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
	}
	if req.Width != nil {
		s.sess.Tools.SetPencilWidth(*req.Width)
	}
	return s.toolsView(c)
}

func (s *Server) getPanel(c fiber.Ctx) error { return c.JSON(s.sess.Panel.View()) }

func (s *Server) putDimensions(c fiber.Ctx) error {
	var req struct {
		Width  *int `json:"width"`
		Height *int `json:"height"`
	}
	if err := decode(c, &req); err != nil {
		return err
	}
	if req.Width != nil {
		s.sess.Panel.SetWidth(*req.Width)
	}
	if req.Height != nil {
		s.sess.Panel.SetHeight(*req.Height)
	}
	return c.JSON(s.sess.Panel.View())
}

func (s *Server) blur(c fiber.Ctx) error {
	s.sess.Panel.Blur()
	return c.JSON(s.sess.Panel.View())
}

func (s *Server) toggleLock(c fiber.Ctx) error {
	s.sess.Panel.ToggleLock()
	return c.JSON(s.sess.Panel.View())
}

func (s *Server) preset(c fiber.Ctx) error {
	if !s.sess.Panel.ApplyPreset(c.Params("name")) {
		return fiber.NewError(fiber.StatusNotFound, "unknown preset")
	}
	return c.JSON(s.sess.Panel.View())
}

func (s *Server) swatch(c fiber.Ctx) error {
	i, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid swatch index")
	}
	return s.changed(c, s.sess.Panel.PickSwatch(i))
}

func (s *Server) putFill(c fiber.Ctx) error {
	var req colorRequest
	if err := decode(c, &req); err != nil {
		return err
	}
	return s.changed(c, s.sess.Panel.SetFill(req.Color))
}

func (s *Server) putStroke(c fiber.Ctx) error {
	var req struct {
		Color string   `json:"color"`
		Width *float64 `json:"width"`
	}
	if err := decode(c, &req); err != nil {
		return err
	}
	ok := false
	if req.Color != "" {
		ok = s.sess.Panel.SetStrokeColor(req.Color) || ok
	}
	if req.Width != nil {
		ok = s.sess.Panel.SetStrokeWidth(*req.Width) || ok
	}
	return s.changed(c, ok)
}

type fontRequest struct {
	Family string       `json:"family"`
	Size   *float64     `json:"size"`
	Weight fonts.Weight `json:"weight"`
	Align  scene.Align  `json:"align"`
}

func (s *Server) putFont(c fiber.Ctx) error {
	var req fontRequest
	if err := decode(c, &req); err != nil {
		return err
	}
	ok := false
	if req.Family != "" {
		// the load continues after the request returns
		_, applied := s.sess.Panel.SelectFont(context.Background(), req.Family)
		ok = applied || ok
	}
	if req.Size != nil {
		ok = s.sess.Panel.SetFontSize(*req.Size) || ok
	}
	if req.Weight > 0 {
		ok = s.sess.Panel.SetFontWeight(req.Weight) || ok
	}
	if req.Align != "" {
		ok = s.sess.Panel.SetAlign(req.Align) || ok
	}
	return s.changed(c, ok)
}

func (s *Server) toggleSection(c fiber.Ctx) error {
	expanded := s.sess.Panel.Toggle(panel.Section(c.Params("section")))
	return c.JSON(fiber.Map{"section": c.Params("section"), "expanded": expanded})
}

func (s *Server) getFonts(c fiber.Ctx) error {
	return c.JSON(s.sess.Panel.FontEntries(c.Query("q")))
}

func (s *Server) iconQuery(c fiber.Ctx) error {
	if s.sess.Icons == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "icon search not configured")
	}
	var req struct {
		Query string `json:"query"`
	}
	if err := decode(c, &req); err != nil {
		return err
	}
	s.sess.Icons.Type(req.Query)
	return c.SendStatus(fiber.StatusAccepted)
}

func (s *Server) iconResults(c fiber.Ctx) error {
	if s.sess.Icons == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "icon search not configured")
	}
	r := s.sess.Icons.Results()
	out := fiber.Map{"query": r.Query, "icons": r.Icons}
	if r.Err != nil {
		out["error"] = r.Err.Error()
	}
	return c.JSON(out)
}
