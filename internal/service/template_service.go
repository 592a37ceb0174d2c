// internal/service/template_service.go
package service

import (
    "context"
    "encoding/json"
    "fmt"
    "strings"

    "github.com/sirupsen/logrus"

    appErrors "github.com/unclebandit/crm-campaign-backend/internal/errors"
    "github.com/unclebandit/crm-campaign-backend/internal/model"
    "github.com/unclebandit/crm-campaign-backend/internal/repository"
    "github.com/unclebandit/crm-campaign-backend/internal/whatsapp"
)

// TemplateTypeMedia marks templates whose header carries an uploaded file.
const TemplateTypeMedia = "media"

// Upload limits for template header files.
const (
    MaxImageBytes = 4 << 20
    MaxVideoBytes = 9 << 20
)

// MediaTemplateInput is an image or video template as submitted by the form.
type MediaTemplateInput struct {
    Name        string
    Language    string
    Category    string
    Body        string
    Footer      string
    FileName    string
    ContentType string
    Content     []byte
}

type TemplateService struct {
    Provider     MessageProvider
    TemplateRepo repository.TemplateRepositoryInterface
}

// CreateTextTemplate forwards the payload to the provider and records the
// template locally. A failed local write does not fail the call.
func (s *TemplateService) CreateTextTemplate(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
    var head struct {
        Name string `json:"name"`
    }
    if err := json.Unmarshal(payload, &head); err != nil {
        return nil, appErrors.NewValidation("invalid template payload: %v", err)
    }
    name := strings.TrimSpace(head.Name)
    if name == "" {
        return nil, appErrors.NewValidation("name is required")
    }

    resp, err := s.Provider.CreateTemplate(ctx, payload)
    if err != nil {
        return nil, err
    }

    media := ""
    detail := &model.TemplateDetail{
        TemplateName: name,
        TemplateType: model.MediaText,
        MediaType:    &media,
    }
    if err := s.TemplateRepo.Upsert(ctx, detail); err != nil {
        logrus.WithError(err).WithField("template", name).Warn("⚠️ template created upstream but not saved")
    }
    return resp, nil
}

// CreateMediaTemplate uploads the header file, registers a HEADER/BODY/FOOTER
// template with the provider and records the file so image and video sends
// can link it.
func (s *TemplateService) CreateMediaTemplate(ctx context.Context, media string, in MediaTemplateInput) (json.RawMessage, error) {
    limit := 0
    contentType := in.ContentType
    switch media {
    case model.MediaImage:
        limit = MaxImageBytes
        if contentType == "" {
            contentType = "image/jpeg"
        }
    case model.MediaVideo:
        limit = MaxVideoBytes
        if contentType == "" {
            contentType = "video/mp4"
        }
    default:
        return nil, appErrors.NewValidation("unsupported template media %q", media)
    }

    name := strings.TrimSpace(in.Name)
    if name == "" || strings.TrimSpace(in.Category) == "" || strings.TrimSpace(in.Body) == "" {
        return nil, appErrors.NewValidation("name, category and body are required")
    }
    if len(in.Content) == 0 {
        return nil, appErrors.NewValidation("file is required")
    }
    if len(in.Content) > limit {
        return nil, appErrors.NewValidation("%s must be less than %dMB", media, limit>>20)
    }
    language := strings.TrimSpace(in.Language)
    if language == "" {
        language = s.Provider.Language()
    }

    uploaded, err := s.Provider.UploadMedia(ctx, in.FileName, contentType, in.Content)
    if err != nil {
        return nil, err
    }

    def := whatsapp.NewMediaTemplateDefinition(name, language, in.Category, media, uploaded.Handle, in.Body, in.Footer)
    payload, err := json.Marshal(def)
    if err != nil {
        return nil, fmt.Errorf("encode template definition: %w", err)
    }
    resp, err := s.Provider.CreateTemplate(ctx, payload)
    if err != nil {
        return nil, err
    }

    detail := &model.TemplateDetail{
        TemplateName: name,
        FileURL:      &uploaded.URL,
        FileHValue:   &uploaded.Handle,
        TemplateType: TemplateTypeMedia,
        MediaType:    &media,
    }
    if err := s.TemplateRepo.Upsert(ctx, detail); err != nil {
        logrus.WithError(err).WithField("template", name).Warn("⚠️ template created upstream but not saved")
    }
    logrus.WithFields(logrus.Fields{"template": name, "media": media}).Info("🖼️ media template created")
    return resp, nil
}

func (s *TemplateService) SyncTemplate(ctx context.Context, name string) (map[string]any, error) {
    name = strings.TrimSpace(name)
    if name == "" {
        return nil, appErrors.NewValidation("template_name is required")
    }
    raw, err := s.Provider.SyncTemplate(ctx, name)
    if err != nil {
        return nil, err
    }
    return map[string]any{"success": true, "sync_status": raw}, nil
}

func (s *TemplateService) ListTemplates(ctx context.Context) (json.RawMessage, error) {
    return s.Provider.ListTemplates(ctx)
}

func (s *TemplateService) TemplateDetails(ctx context.Context, name string) (*model.TemplateDetail, error) {
    return s.TemplateRepo.GetByName(ctx, name)
}
