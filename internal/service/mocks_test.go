package service_test

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/unclebandit/crm-campaign-backend/internal/audience"
	appErrors "github.com/unclebandit/crm-campaign-backend/internal/errors"
	"github.com/unclebandit/crm-campaign-backend/internal/export"
	"github.com/unclebandit/crm-campaign-backend/internal/model"
	"github.com/unclebandit/crm-campaign-backend/internal/whatsapp"
)

// Mock repositories
type MockCampaignRepo struct {
	Campaigns map[int]*model.Campaign
	Updated   *model.Campaign
	Deleted   int
	RunFrom   *time.Time
	RunTo     *time.Time
}

func (m *MockCampaignRepo) Create(ctx context.Context, c *model.Campaign) error {
	c.ID = 999 // fake ID
	c.CreatedAt = time.Now()
	return nil
}

func (m *MockCampaignRepo) Update(ctx context.Context, c *model.Campaign) error {
	if _, ok := m.Campaigns[c.ID]; !ok {
		return appErrors.NewCampaignNotFound(c.ID)
	}
	m.Updated = c
	return nil
}

func (m *MockCampaignRepo) Delete(ctx context.Context, id int) error {
	if _, ok := m.Campaigns[id]; !ok {
		return appErrors.NewCampaignNotFound(id)
	}
	m.Deleted = id
	return nil
}

func (m *MockCampaignRepo) GetByID(ctx context.Context, id int) (*model.Campaign, error) {
	c, ok := m.Campaigns[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	return c, nil
}

func (m *MockCampaignRepo) ListCampaigns(ctx context.Context, offset, limit int) ([]*model.Campaign, int, error) {
	return []*model.Campaign{}, 0, nil
}

func (m *MockCampaignRepo) ListForRun(ctx context.Context, from, to *time.Time) ([]*model.Campaign, error) {
	m.RunFrom, m.RunTo = from, to
	return []*model.Campaign{}, nil
}

// MockAudienceRepo records every query it is asked to run.
type MockAudienceRepo struct {
	mu      sync.Mutex
	Queries []audience.Query
	Matched []string
	CountFn func(q audience.Query) int64
	Cols    []string
	Rows    [][]string
}

func (m *MockAudienceRepo) record(q audience.Query) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Queries = append(m.Queries, q)
}

func (m *MockAudienceRepo) Open(ctx context.Context, q audience.Query) (export.Cursor, error) {
	m.record(q)
	return &export.SliceCursor{Cols: m.Cols, Rows: m.Rows}, nil
}

func (m *MockAudienceRepo) Count(ctx context.Context, q audience.Query) (int64, error) {
	m.record(q)
	if m.CountFn == nil {
		return 0, nil
	}
	return m.CountFn(q), nil
}

func (m *MockAudienceRepo) Numbers(ctx context.Context, q audience.Query) ([]string, error) {
	m.record(q)
	return m.Matched, nil
}

type MockContactRepo struct {
	Contacts []model.Contact
}

func (m *MockContactRepo) ListByCampaign(ctx context.Context, campaignID int) ([]model.Contact, error) {
	return m.Contacts, nil
}

type MockTemplateRepo struct {
	Templates map[string]*model.TemplateDetail
	Saved     *model.TemplateDetail
	UpsertErr error
}

func (m *MockTemplateRepo) Upsert(ctx context.Context, t *model.TemplateDetail) error {
	m.Saved = t
	return m.UpsertErr
}

func (m *MockTemplateRepo) GetByName(ctx context.Context, name string) (*model.TemplateDetail, error) {
	t, ok := m.Templates[name]
	if !ok {
		return nil, appErrors.NewTemplateNotFound(name)
	}
	return t, nil
}

// MockProvider stands in for the WhatsApp client.
type MockProvider struct {
	Sent      []whatsapp.TemplateMessage
	Texts     []string
	Created   json.RawMessage
	Uploads   []string
	SendErr   error
	UploadErr error
}

func (m *MockProvider) Language() string { return "en" }

func (m *MockProvider) SendTemplate(ctx context.Context, msg whatsapp.TemplateMessage) (json.RawMessage, error) {
	if m.SendErr != nil {
		return nil, m.SendErr
	}
	m.Sent = append(m.Sent, msg)
	return json.RawMessage(`{"status":"accepted"}`), nil
}

func (m *MockProvider) SendText(ctx context.Context, to, body string) (json.RawMessage, error) {
	m.Texts = append(m.Texts, to)
	return json.RawMessage(`{"status":"accepted"}`), nil
}

func (m *MockProvider) CreateTemplate(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	m.Created = payload
	return json.RawMessage(`{"id":"tpl-1"}`), nil
}

func (m *MockProvider) SyncTemplate(ctx context.Context, name string) (json.RawMessage, error) {
	return json.RawMessage(`{"status":"APPROVED"}`), nil
}

func (m *MockProvider) ListTemplates(ctx context.Context) (json.RawMessage, error) {
	return json.RawMessage(`[]`), nil
}

func (m *MockProvider) UploadMedia(ctx context.Context, filename, contentType string, content []byte) (*whatsapp.UploadedMedia, error) {
	if m.UploadErr != nil {
		return nil, m.UploadErr
	}
	m.Uploads = append(m.Uploads, filename+" "+contentType)
	return &whatsapp.UploadedMedia{Handle: "4::aW1hZ2U=", URL: "https://cdn.wbbox.in/media/" + filename}, nil
}

type MockPublisher struct {
	Topics   []string
	Payloads []any
}

func (m *MockPublisher) Publish(topic string, payload any) error {
	m.Topics = append(m.Topics, topic)
	m.Payloads = append(m.Payloads, payload)
	return nil
}

func strPtr(s string) *string { return &s }
