// internal/controller/campaign_controller.go
package controller

import (
    "encoding/json"
    "net/http"
    "strconv"

    "github.com/sirupsen/logrus"

    appErrors "github.com/unclebandit/crm-campaign-backend/internal/errors"
    "github.com/unclebandit/crm-campaign-backend/internal/service"
)

type CampaignController struct {
    CampaignService *service.CampaignService
}

func decodeCampaign(r *http.Request) (service.CampaignInput, error) {
    var body service.CampaignInput
    if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
        return body, appErrors.NewValidation("invalid body: %v", err)
    }
    return body, nil
}

func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
    body, err := decodeCampaign(r)
    if err != nil {
        WriteError(w, r, err)
        return
    }

    campaign, err := c.CampaignService.CreateCampaign(r.Context(), body)
    if err != nil {
        WriteError(w, r, err)
        return
    }

    WriteJSON(w, http.StatusCreated, campaign)
}

func (c *CampaignController) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
    id, err := IDParam(r)
    if err != nil {
        WriteError(w, r, err)
        return
    }
    body, err := decodeCampaign(r)
    if err != nil {
        WriteError(w, r, err)
        return
    }

    campaign, err := c.CampaignService.UpdateCampaign(r.Context(), id, body)
    if err != nil {
        WriteError(w, r, err)
        return
    }
    WriteJSON(w, http.StatusOK, campaign)
}

func (c *CampaignController) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
    id, err := IDParam(r)
    if err != nil {
        WriteError(w, r, err)
        return
    }
    if err := c.CampaignService.DeleteCampaign(r.Context(), id); err != nil {
        WriteError(w, r, err)
        return
    }
    logrus.WithField("campaign_id", id).Info("🗑️ campaign deleted")
    WriteJSON(w, http.StatusOK, map[string]any{"message": "Campaign deleted", "id": id})
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
    // Parse query parameters
    page, _ := strconv.Atoi(r.URL.Query().Get("page"))
    pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))

    campaigns, pagination, err := c.CampaignService.ListCampaigns(r.Context(), page, pageSize)
    if err != nil {
        WriteError(w, r, err)
        return
    }

    WriteJSON(w, http.StatusOK, map[string]interface{}{
        "data":       campaigns,
        "pagination": pagination, // already contains total_count, total_pages, page, page_size
    })
}

func (c *CampaignController) GetCampaignDetails(w http.ResponseWriter, r *http.Request) {
    id, err := IDParam(r)
    if err != nil {
        WriteError(w, r, err)
        return
    }

    campaign, err := c.CampaignService.GetCampaignDetails(r.Context(), id)
    if err != nil {
        WriteError(w, r, err)
        return
    }

    WriteJSON(w, http.StatusOK, campaign)
}

// RunList serves GET /campaigns/run/list?from_date=&to_date=
func (c *CampaignController) RunList(w http.ResponseWriter, r *http.Request) {
    q := r.URL.Query()
    campaigns, err := c.CampaignService.RunList(r.Context(), q.Get("from_date"), q.Get("to_date"))
    if err != nil {
        WriteError(w, r, err)
        return
    }
    WriteJSON(w, http.StatusOK, campaigns)
}

func (c *CampaignController) RunDetails(w http.ResponseWriter, r *http.Request) {
    id, err := IDParam(r)
    if err != nil {
        WriteError(w, r, err)
        return
    }
    details, err := c.CampaignService.RunDetails(r.Context(), id)
    if err != nil {
        WriteError(w, r, err)
        return
    }
    WriteJSON(w, http.StatusOK, details)
}

func (c *CampaignController) Options(w http.ResponseWriter, r *http.Request) {
    opts, err := c.CampaignService.Options(r.Context())
    if err != nil {
        WriteError(w, r, err)
        return
    }
    WriteJSON(w, http.StatusOK, opts)
}

func (c *CampaignController) DownloadNumbers(w http.ResponseWriter, r *http.Request) {
    id, err := IDParam(r)
    if err != nil {
        WriteError(w, r, err)
        return
    }
    buf, err := c.CampaignService.CampaignNumbersXLSX(r.Context(), id)
    if err != nil {
        WriteError(w, r, err)
        return
    }
    writeXLSX(w, "campaign_"+strconv.Itoa(id)+"_numbers.xlsx", buf.Bytes())
}

func (c *CampaignController) UploadTemplate(w http.ResponseWriter, r *http.Request) {
    buf, err := c.CampaignService.UploadTemplateXLSX()
    if err != nil {
        WriteError(w, r, err)
        return
    }
    writeXLSX(w, "upload_template.xlsx", buf.Bytes())
}

func (c *CampaignController) DownloadContacts(w http.ResponseWriter, r *http.Request) {
    id, err := IDParam(r)
    if err != nil {
        WriteError(w, r, err)
        return
    }
    buf, err := c.CampaignService.ContactsXLSX(r.Context(), id)
    if err != nil {
        WriteError(w, r, err)
        return
    }
    writeXLSX(w, "campaign_"+strconv.Itoa(id)+"_contacts.xlsx", buf.Bytes())
}

func (c *CampaignController) UploadedNumbers(w http.ResponseWriter, r *http.Request) {
    id, err := IDParam(r)
    if err != nil {
        WriteError(w, r, err)
        return
    }
    numbers, err := c.CampaignService.UploadedNumbers(r.Context(), id)
    if err != nil {
        WriteError(w, r, err)
        return
    }
    WriteJSON(w, http.StatusOK, map[string]string{"phone_numbers": numbers})
}
