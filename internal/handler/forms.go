// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/forms"
	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/messages"
	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/model"
	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/processor"
)

// maxFormMemory bounds multipart parsing of submissions.
const maxFormMemory = 10 << 20

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body><main><h1>{{.Title}}</h1>
{{.Form}}
</main></body>
</html>
`))

// FormsHandler serves registered forms and their submissions.
type FormsHandler struct {
	registry *forms.Registry
	logger   *slog.Logger
}

// NewFormsHandler creates a new forms handler.
func NewFormsHandler(registry *forms.Registry, logger *slog.Logger) *FormsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FormsHandler{registry: registry, logger: logger}
}

// FormListItem describes a registered form.
type FormListItem struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	Type  string `json:"type,omitempty"`
}

// List handles GET /forms.
func (h *FormsHandler) List(w http.ResponseWriter, _ *http.Request) {
	names := h.registry.Names()
	items := make([]FormListItem, 0, len(names))
	for _, name := range names {
		d, ok := h.registry.Get(name)
		if !ok {
			continue
		}
		items = append(items, FormListItem{Name: d.Name, Title: d.Title, Type: string(d.Type)})
	}
	writeJSONSuccess(w, map[string]any{"forms": items})
}

// Show handles GET /forms/{name}. The optional id query parameter loads a
// record into an update form.
func (h *FormsHandler) Show(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	h.renderPage(w, r, name, http.StatusOK, forms.RenderRequest{RecordID: r.URL.Query().Get("id")})
}

// messageJSON is a form message in JSON responses.
type messageJSON struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

// SubmissionResponse is the JSON body returned for a submission.
type SubmissionResponse struct {
	Success  bool          `json:"success"`
	Form     string        `json:"form,omitempty"`
	Code     string        `json:"code"`
	InsertID int64         `json:"insertId,omitempty"`
	Messages []messageJSON `json:"messages"`
}

// Submit handles POST /forms/{name}. The submission is routed by its
// __formID field, which must match the form named in the path when set.
func (h *FormsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, ok := h.registry.Get(name); !ok {
		h.notFound(w, r)
		return
	}

	if err := r.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		h.logger.Warn("failed to parse form submission", "form", name, "error", err)
		h.badRequest(w, r, "Invalid form data")
		return
	}
	values := r.PostForm
	if id := values.Get(model.FormIDField); id != "" && id != name {
		h.badRequest(w, r, "Form id does not match the requested form")
		return
	}

	sink := messages.New(h.logger)
	sub := h.registry.ProcessPost(r.Context(), values, sink)
	status := statusForCode(sub.Code)

	if wantsJSON(r) {
		resp := SubmissionResponse{
			Success:  sub.Code.OK(),
			Form:     sub.Form,
			Code:     sub.Code.String(),
			InsertID: sub.InsertID,
			Messages: []messageJSON{},
		}
		for _, m := range sink.Messages() {
			resp.Messages = append(resp.Messages, messageJSON{Kind: string(m.Kind), Text: m.Text})
		}
		writeJSON(w, status, resp)
		return
	}

	req := forms.RenderRequest{Messages: sink}
	if sub.Code.OK() {
		req.RecordID = r.URL.Query().Get("id")
	} else {
		req.Values = values
	}
	h.renderPage(w, r, name, status, req)
}

// statusForCode maps a processing code onto an HTTP status.
func statusForCode(code processor.Code) int {
	switch code {
	case processor.CodeOK:
		return http.StatusOK
	case processor.CodeValidation, processor.CodeIncompleteData:
		return http.StatusUnprocessableEntity
	case processor.CodeNoPost, processor.CodeNoID, processor.CodeInvalidID:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (h *FormsHandler) renderPage(w http.ResponseWriter, r *http.Request, name string, status int, req forms.RenderRequest) {
	body, err := h.registry.Render(r.Context(), name, req)
	if err != nil {
		switch {
		case errors.Is(err, forms.ErrUnknownForm), errors.Is(err, forms.ErrRecordNotFound):
			h.notFound(w, r)
		default:
			h.logger.Error("failed to render form", "form", name, "error", err)
			if wantsJSON(r) {
				writeJSONError(w, http.StatusInternalServerError, "Internal Server Error")
				return
			}
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
		return
	}

	if wantsJSON(r) {
		writeJSON(w, status, map[string]any{"success": status == http.StatusOK, "form": name, "html": body})
		return
	}

	title := name
	if d, ok := h.registry.Get(name); ok && d.Title != "" {
		title = d.Title
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTemplate.Execute(w, struct {
		Title string
		Form  template.HTML
	}{Title: title, Form: template.HTML(body)}); err != nil {
		h.logger.Error("failed to write form page", "form", name, "error", err)
	}
}

func (h *FormsHandler) notFound(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		writeJSONError(w, http.StatusNotFound, "Form not found")
		return
	}
	http.NotFound(w, r)
}

func (h *FormsHandler) badRequest(w http.ResponseWriter, r *http.Request, message string) {
	if wantsJSON(r) {
		writeJSONError(w, http.StatusBadRequest, message)
		return
	}
	http.Error(w, message, http.StatusBadRequest)
}
