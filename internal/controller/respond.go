package controller

import (
    "encoding/json"
    "errors"
    "net/http"
    "strconv"
    "strings"

    "github.com/go-chi/chi/v5"
    "github.com/sirupsen/logrus"

    appErrors "github.com/unclebandit/crm-campaign-backend/internal/errors"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(status)
    if err := json.NewEncoder(w).Encode(v); err != nil {
        logrus.WithError(err).Error("❌ failed to encode response")
    }
}

// WriteRaw passes an already encoded JSON document through.
func WriteRaw(w http.ResponseWriter, status int, body []byte) {
    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(status)
    w.Write(body)
}

// WriteError maps err onto its HTTP status. Provider errors are relayed as
// received, with non-JSON bodies wrapped under "error"; anything unclassified
// is logged and hidden behind a generic body.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
    var upstream *appErrors.ErrUpstream
    if errors.As(err, &upstream) {
        logrus.WithError(err).Warn("⚠️ provider rejected request")
        status := appErrors.StatusCode(err)
        if json.Valid(upstream.Body) {
            WriteRaw(w, status, upstream.Body)
            return
        }
        WriteJSON(w, status, map[string]string{"error": strings.TrimSpace(string(upstream.Body))})
        return
    }

    status := appErrors.StatusCode(err)
    if status == http.StatusInternalServerError {
        logrus.WithError(err).WithField("path", r.URL.Path).Error("❌ request failed")
        WriteJSON(w, status, map[string]string{"error": "internal error"})
        return
    }
    WriteJSON(w, status, map[string]string{"error": err.Error()})
}

// IDParam reads the {id} path parameter.
func IDParam(r *http.Request) (int, error) {
    id, err := strconv.Atoi(chi.URLParam(r, "id"))
    if err != nil || id <= 0 {
        return 0, appErrors.NewValidation("invalid campaign id")
    }
    return id, nil
}

func writeXLSX(w http.ResponseWriter, filename string, body []byte) {
    w.Header().Set("Content-Type", xlsxContentType)
    w.Header().Set("Content-Disposition", "attachment; filename="+filename)
    w.WriteHeader(http.StatusOK)
    w.Write(body)
}
