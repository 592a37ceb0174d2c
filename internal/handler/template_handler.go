package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/unclebandit/crm-campaign-backend/internal/controller"
	appErrors "github.com/unclebandit/crm-campaign-backend/internal/errors"
	"github.com/unclebandit/crm-campaign-backend/internal/model"
	"github.com/unclebandit/crm-campaign-backend/internal/service"
)

// TemplateHandler proxies template management to the provider
type TemplateHandler struct {
	Service *service.TemplateService
}

// CreateTemplate forwards the request body to the provider unchanged
func (h *TemplateHandler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		controller.WriteError(w, r, appErrors.NewValidation("invalid request body: %v", err))
		return
	}

	resp, err := h.Service.CreateTextTemplate(r.Context(), json.RawMessage(body))
	if err != nil {
		controller.WriteError(w, r, err)
		return
	}
	controller.WriteRaw(w, http.StatusOK, resp)
}

func (h *TemplateHandler) CreateImageTemplate(w http.ResponseWriter, r *http.Request) {
	h.createMedia(w, r, model.MediaImage)
}

func (h *TemplateHandler) CreateVideoTemplate(w http.ResponseWriter, r *http.Request) {
	h.createMedia(w, r, model.MediaVideo)
}

// createMedia reads the multipart form: name, language, category, body,
// footer and the header file under "file".
func (h *TemplateHandler) createMedia(w http.ResponseWriter, r *http.Request, media string) {
	r.Body = http.MaxBytesReader(w, r.Body, service.MaxVideoBytes+(1<<20))
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		controller.WriteError(w, r, appErrors.NewValidation("invalid multipart form: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		controller.WriteError(w, r, appErrors.NewValidation("file is required"))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		controller.WriteError(w, r, appErrors.NewValidation("read file: %v", err))
		return
	}

	resp, err := h.Service.CreateMediaTemplate(r.Context(), media, service.MediaTemplateInput{
		Name:        r.FormValue("name"),
		Language:    r.FormValue("language"),
		Category:    r.FormValue("category"),
		Body:        r.FormValue("body"),
		Footer:      r.FormValue("footer"),
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     content,
	})
	if err != nil {
		controller.WriteError(w, r, err)
		return
	}
	controller.WriteRaw(w, http.StatusOK, resp)
}

func (h *TemplateHandler) SyncTemplate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		TemplateName string `json:"template_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		controller.WriteError(w, r, appErrors.NewValidation("invalid request body: %v", err))
		return
	}

	out, err := h.Service.SyncTemplate(r.Context(), payload.TemplateName)
	if err != nil {
		controller.WriteError(w, r, err)
		return
	}
	controller.WriteJSON(w, http.StatusOK, out)
}

func (h *TemplateHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	resp, err := h.Service.ListTemplates(r.Context())
	if err != nil {
		controller.WriteError(w, r, err)
		return
	}
	controller.WriteRaw(w, http.StatusOK, resp)
}

// TemplateDetails returns the locally stored type of a template
func (h *TemplateHandler) TemplateDetails(w http.ResponseWriter, r *http.Request) {
	t, err := h.Service.TemplateDetails(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		controller.WriteError(w, r, err)
		return
	}

	controller.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"template_name": t.TemplateName,
		"template_type": t.TemplateType,
		"media_type":    t.MediaType,
	})
}
