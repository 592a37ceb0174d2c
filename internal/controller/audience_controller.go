package controller

import (
    "net/http"

    "github.com/go-chi/chi/v5/middleware"
    "github.com/sirupsen/logrus"

    appErrors "github.com/unclebandit/crm-campaign-backend/internal/errors"
    "github.com/unclebandit/crm-campaign-backend/internal/filter"
    "github.com/unclebandit/crm-campaign-backend/internal/service"
)

// AudienceController serves ad-hoc audience exports and counts.
type AudienceController struct {
    AudienceService *service.AudienceService
}

func decodeCriteria(r *http.Request) (filter.Criteria, error) {
    crit, err := filter.Decode(r.Body)
    if err != nil {
        return crit, appErrors.NewValidation("%v", err)
    }
    return crit, nil
}

// DownloadCSV streams the matching customers as numbers.csv.
func (c *AudienceController) DownloadCSV(w http.ResponseWriter, r *http.Request) {
    crit, err := decodeCriteria(r)
    if err != nil {
        WriteError(w, r, err)
        return
    }

    ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
    ww.Header().Set("Content-Type", "text/csv")
    ww.Header().Set("Content-Disposition", "attachment; filename=numbers.csv")

    n, err := c.AudienceService.StreamCSV(r.Context(), ww, crit)
    if err != nil {
        // once rows went out the status line is gone
        if ww.BytesWritten() == 0 {
            w.Header().Del("Content-Disposition")
            WriteError(w, r, err)
            return
        }
        logrus.WithError(err).WithField("rows", n).Error("❌ csv stream aborted")
        return
    }
    logrus.WithField("rows", n).Info("📤 audience csv streamed")
}

func (c *AudienceController) ExportXLSX(w http.ResponseWriter, r *http.Request) {
    crit, err := decodeCriteria(r)
    if err != nil {
        WriteError(w, r, err)
        return
    }
    buf, err := c.AudienceService.ExportXLSX(r.Context(), crit)
    if err != nil {
        WriteError(w, r, err)
        return
    }
    writeXLSX(w, "audience.xlsx", buf.Bytes())
}

func (c *AudienceController) Count(w http.ResponseWriter, r *http.Request) {
    crit, err := decodeCriteria(r)
    if err != nil {
        WriteError(w, r, err)
        return
    }
    counts, err := c.AudienceService.Count(r.Context(), crit)
    if err != nil {
        WriteError(w, r, err)
        return
    }
    WriteJSON(w, http.StatusOK, counts)
}
