// internal/handler/campaign_handler.go
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/unclebandit/crm-campaign-backend/internal/controller"
	appErrors "github.com/unclebandit/crm-campaign-backend/internal/errors"
	"github.com/unclebandit/crm-campaign-backend/internal/model"
	"github.com/unclebandit/crm-campaign-backend/internal/service"
)

// DispatchHandler holds the dependencies for the WhatsApp send endpoints
type DispatchHandler struct {
	Service *service.DispatchService
}

// NewDispatchHandler creates a new DispatchHandler with the given service
func NewDispatchHandler(svc *service.DispatchService) *DispatchHandler {
	return &DispatchHandler{Service: svc}
}

func (h *DispatchHandler) SendText(w http.ResponseWriter, r *http.Request) {
	h.send(w, r, model.MediaText)
}

func (h *DispatchHandler) SendImage(w http.ResponseWriter, r *http.Request) {
	h.send(w, r, model.MediaImage)
}

func (h *DispatchHandler) SendVideo(w http.ResponseWriter, r *http.Request) {
	h.send(w, r, model.MediaVideo)
}

func (h *DispatchHandler) send(w http.ResponseWriter, r *http.Request, media string) {
	var payload service.SendRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		controller.WriteError(w, r, appErrors.NewValidation("invalid request body: %v", err))
		return
	}

	logrus.WithFields(logrus.Fields{
		"template": payload.TemplateName,
		"media":    media,
		"based_on": payload.BasedOn,
	}).Info("📥 template send requested")

	res, err := h.Service.Send(r.Context(), media, payload)
	if err != nil {
		controller.WriteError(w, r, err)
		return
	}
	if !res.Matched {
		controller.WriteJSON(w, http.StatusOK, map[string]string{"message": "No customer matched"})
		return
	}

	logrus.WithField("recipients", res.Recipients).Info("✅ template message accepted by provider")
	controller.WriteRaw(w, http.StatusOK, res.Response)
}

// SendWhatsApp handles the older {to, body} text endpoint
func (h *DispatchHandler) SendWhatsApp(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		To   string `json:"to"`
		Body string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		controller.WriteError(w, r, appErrors.NewValidation("invalid request body: %v", err))
		return
	}

	responses, err := h.Service.SendWhatsApp(r.Context(), payload.To, payload.Body)
	if err != nil {
		controller.WriteError(w, r, err)
		return
	}
	if len(responses) == 0 {
		controller.WriteJSON(w, http.StatusOK, map[string]string{"message": "No customer matched"})
		return
	}

	controller.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"sent":    len(responses),
		"results": responses,
	})
}
