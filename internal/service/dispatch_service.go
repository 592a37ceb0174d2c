package service

import (
    "context"
    "encoding/json"
    "strings"
    "time"

    "github.com/google/uuid"
    "github.com/sirupsen/logrus"

    "github.com/unclebandit/crm-campaign-backend/internal/audience"
    appErrors "github.com/unclebandit/crm-campaign-backend/internal/errors"
    "github.com/unclebandit/crm-campaign-backend/internal/export"
    "github.com/unclebandit/crm-campaign-backend/internal/filter"
    "github.com/unclebandit/crm-campaign-backend/internal/model"
    "github.com/unclebandit/crm-campaign-backend/internal/queue"
    "github.com/unclebandit/crm-campaign-backend/internal/repository"
    "github.com/unclebandit/crm-campaign-backend/internal/whatsapp"
)

// BasedOnUpload selects the phone_numbers field instead of a campaign audience.
const BasedOnUpload = "upload"

// MessageProvider is implemented by whatsapp.Client.
type MessageProvider interface {
    Language() string
    SendTemplate(ctx context.Context, msg whatsapp.TemplateMessage) (json.RawMessage, error)
    SendText(ctx context.Context, to, body string) (json.RawMessage, error)
    CreateTemplate(ctx context.Context, payload json.RawMessage) (json.RawMessage, error)
    SyncTemplate(ctx context.Context, name string) (json.RawMessage, error)
    ListTemplates(ctx context.Context) (json.RawMessage, error)
    UploadMedia(ctx context.Context, filename, contentType string, content []byte) (*whatsapp.UploadedMedia, error)
}

// Publisher is the publishing half of queue.Queue.
type Publisher interface {
    Publish(topic string, payload any) error
}

type SendRequest struct {
    TemplateName string `json:"template_name"`
    BasedOn      string `json:"basedon_value"`
    CampaignID   int    `json:"campaign_id"`
    PhoneNumbers string `json:"phone_numbers"`
}

// SendResult is what a dispatch hands back to the caller. When Matched is
// false the provider was never called.
type SendResult struct {
    Matched    bool
    Recipients int
    Response   json.RawMessage
}

type DispatchService struct {
    Provider     MessageProvider
    TemplateRepo repository.TemplateRepositoryInterface
    CampaignRepo repository.CampaignRepositoryInterface
    AudienceRepo repository.AudienceRepositoryInterface
    Queue        Publisher
    Topic        string
    CountryCode  string
}

// Send dispatches one template message (text, image or video) to every
// resolved recipient in a single provider call.
func (s *DispatchService) Send(ctx context.Context, media string, req SendRequest) (*SendResult, error) {
    req.TemplateName = strings.TrimSpace(req.TemplateName)
    if req.TemplateName == "" {
        return nil, appErrors.NewValidation("template_name is required")
    }

    var link string
    if media == model.MediaImage || media == model.MediaVideo {
        tpl, err := s.TemplateRepo.GetByName(ctx, req.TemplateName)
        if err != nil {
            return nil, err
        }
        if tpl.FileURL == nil || *tpl.FileURL == "" {
            return nil, appErrors.NewTemplateNotFound(req.TemplateName)
        }
        link = *tpl.FileURL
    }

    numbers, err := s.recipients(ctx, req)
    if err != nil {
        return nil, err
    }
    if len(numbers) == 0 {
        logrus.WithField("template", req.TemplateName).Info("no customer matched, nothing sent")
        return &SendResult{Matched: false}, nil
    }

    msg := whatsapp.NewTemplateMessage(strings.Join(numbers, ","), req.TemplateName, s.Provider.Language(), media, link)
    resp, err := s.Provider.SendTemplate(ctx, msg)
    if err != nil {
        return nil, err
    }

    s.publish(model.DispatchEvent{
        ID:             uuid.NewString(),
        CampaignID:     req.CampaignID,
        TemplateName:   req.TemplateName,
        Media:          media,
        BasedOn:        req.BasedOn,
        RecipientCount: len(numbers),
        ProviderStatus: 200,
        CreatedAt:      time.Now().UTC(),
    })

    return &SendResult{Matched: true, Recipients: len(numbers), Response: resp}, nil
}

func (s *DispatchService) recipients(ctx context.Context, req SendRequest) ([]string, error) {
    if strings.EqualFold(strings.TrimSpace(req.BasedOn), BasedOnUpload) {
        if strings.TrimSpace(req.PhoneNumbers) == "" {
            return nil, appErrors.NewValidation("phone_numbers is required when basedon_value is upload")
        }
        return export.SplitRecipients(req.PhoneNumbers), nil
    }

    if req.CampaignID <= 0 {
        return nil, appErrors.NewValidation("campaign_id is required")
    }
    c, err := s.CampaignRepo.GetByID(ctx, req.CampaignID)
    if err != nil {
        return nil, err
    }
    q, err := audience.ResolveInWindow(audience.Compile(filter.FromCampaign(c)), c.ID)
    if err != nil {
        return nil, err
    }
    numbers, err := s.AudienceRepo.Numbers(ctx, q)
    if err != nil {
        return nil, err
    }
    return export.WithCountryCode(s.CountryCode, export.Clean(numbers)), nil
}

func (s *DispatchService) publish(ev model.DispatchEvent) {
    if s.Queue == nil {
        return
    }
    topic := s.Topic
    if topic == "" {
        topic = queue.DispatchTopic
    }
    if err := s.Queue.Publish(topic, ev); err != nil {
        logrus.WithError(err).WithField("dispatch_id", ev.ID).Warn("⚠️ failed to publish dispatch event")
    }
}

// SendWhatsApp sends a plain text body, one provider call per recipient.
// It stops at the first provider error.
func (s *DispatchService) SendWhatsApp(ctx context.Context, to, body string) ([]json.RawMessage, error) {
    if strings.TrimSpace(to) == "" || strings.TrimSpace(body) == "" {
        return nil, appErrors.NewValidation("to and body are required")
    }
    numbers := export.SplitRecipients(to)
    if len(numbers) == 0 {
        return nil, nil
    }

    responses := make([]json.RawMessage, 0, len(numbers))
    for _, n := range numbers {
        resp, err := s.Provider.SendText(ctx, n, body)
        if err != nil {
            return responses, err
        }
        responses = append(responses, resp)
    }
    logrus.WithField("recipients", len(numbers)).Info("📨 whatsapp text sent")
    return responses, nil
}
