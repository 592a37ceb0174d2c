package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	appErrors "github.com/unclebandit/crm-campaign-backend/internal/errors"
	"github.com/unclebandit/crm-campaign-backend/internal/handler"
	"github.com/unclebandit/crm-campaign-backend/internal/model"
	"github.com/unclebandit/crm-campaign-backend/internal/service"
	"github.com/unclebandit/crm-campaign-backend/internal/whatsapp"
)

type mockProvider struct {
	calls   int
	sendErr error
}

func (m *mockProvider) Language() string { return "en" }

func (m *mockProvider) SendTemplate(ctx context.Context, msg whatsapp.TemplateMessage) (json.RawMessage, error) {
	m.calls++
	if m.sendErr != nil {
		return nil, m.sendErr
	}
	return json.RawMessage(`{"messages":[{"id":"wamid.1"}]}`), nil
}

func (m *mockProvider) SendText(ctx context.Context, to, body string) (json.RawMessage, error) {
	m.calls++
	return json.RawMessage(`{"ok":true}`), nil
}

func (m *mockProvider) CreateTemplate(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	return payload, nil
}

func (m *mockProvider) SyncTemplate(ctx context.Context, name string) (json.RawMessage, error) {
	return json.RawMessage(`{"status":"APPROVED"}`), nil
}

func (m *mockProvider) ListTemplates(ctx context.Context) (json.RawMessage, error) {
	return json.RawMessage(`{"data":[]}`), nil
}

func (m *mockProvider) UploadMedia(ctx context.Context, filename, contentType string, content []byte) (*whatsapp.UploadedMedia, error) {
	return &whatsapp.UploadedMedia{Handle: "4::aGFuZGxl", URL: "https://cdn.wbbox.in/" + filename}, nil
}

type mockTemplateRepo struct {
	saved *model.TemplateDetail
}

func (m *mockTemplateRepo) Upsert(ctx context.Context, t *model.TemplateDetail) error {
	m.saved = t
	return nil
}

func (m *mockTemplateRepo) GetByName(ctx context.Context, name string) (*model.TemplateDetail, error) {
	if name != "diwali_offer" {
		return nil, appErrors.NewTemplateNotFound(name)
	}
	media := ""
	return &model.TemplateDetail{TemplateName: name, TemplateType: "text", MediaType: &media}, nil
}

type nopPublisher struct{}

func (nopPublisher) Publish(topic string, payload any) error { return nil }

func post(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h(w, httptest.NewRequest("POST", "/", strings.NewReader(body)))
	return w
}

func TestSendText_NoCustomerMatched(t *testing.T) {
	p := &mockProvider{}
	h := handler.NewDispatchHandler(&service.DispatchService{Provider: p, Queue: nopPublisher{}, CountryCode: "91"})

	w := post(h.SendText, `{"template_name":"diwali_offer","basedon_value":"upload","phone_numbers":" , n/a"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "No customer matched") {
		t.Errorf("unexpected body %s", w.Body.String())
	}
	if p.calls != 0 {
		t.Errorf("provider called %d times", p.calls)
	}
}

func TestSendText_RelaysProvider(t *testing.T) {
	p := &mockProvider{}
	h := handler.NewDispatchHandler(&service.DispatchService{Provider: p, Queue: nopPublisher{}, CountryCode: "91"})

	w := post(h.SendText, `{"template_name":"diwali_offer","basedon_value":"upload","phone_numbers":"9876543210"}`)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "wamid.1") {
		t.Fatalf("unexpected response %d %s", w.Code, w.Body.String())
	}

	p.sendErr = &appErrors.ErrUpstream{StatusCode: http.StatusBadRequest, Body: []byte(`{"error":"template paused"}`)}
	w = post(h.SendText, `{"template_name":"diwali_offer","basedon_value":"upload","phone_numbers":"9876543210"}`)
	if w.Code != http.StatusBadRequest || w.Body.String() != `{"error":"template paused"}` {
		t.Errorf("unexpected response %d %s", w.Code, w.Body.String())
	}
}

func TestSendImage_UnknownTemplate(t *testing.T) {
	h := handler.NewDispatchHandler(&service.DispatchService{
		Provider:     &mockProvider{},
		TemplateRepo: &mockTemplateRepo{},
	})

	w := post(h.SendImage, `{"template_name":"summer_sale","basedon_value":"upload","phone_numbers":"9876543210"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestSendWhatsApp(t *testing.T) {
	p := &mockProvider{}
	h := handler.NewDispatchHandler(&service.DispatchService{Provider: p})

	w := post(h.SendWhatsApp, `{"to":"9876543210,9876543211","body":"Happy Diwali"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if p.calls != 2 {
		t.Errorf("expected one call per recipient, got %d", p.calls)
	}

	w = post(h.SendWhatsApp, `{"to":"9876543210"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestTemplateDetails(t *testing.T) {
	h := &handler.TemplateHandler{Service: &service.TemplateService{TemplateRepo: &mockTemplateRepo{}}}
	r := chi.NewRouter()
	r.Get("/templates/{name}/details", h.TemplateDetails)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/templates/diwali_offer/details", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var res map[string]interface{}
	json.NewDecoder(w.Body).Decode(&res)
	if res["template_type"] != "text" || res["media_type"] != "" {
		t.Errorf("unexpected body %v", res)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/templates/missing/details", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func multipartTemplate(t *testing.T, fields map[string]string, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(content)
	}
	mw.Close()
	req := httptest.NewRequest("POST", "/templates/image", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestCreateImageTemplate(t *testing.T) {
	repo := &mockTemplateRepo{}
	h := &handler.TemplateHandler{Service: &service.TemplateService{Provider: &mockProvider{}, TemplateRepo: repo}}
	fields := map[string]string{"name": "diwali_banner", "language": "en", "category": "MARKETING", "body": "Diwali deals", "footer": "T&C"}

	w := httptest.NewRecorder()
	h.CreateImageTemplate(w, multipartTemplate(t, fields, "banner.png", []byte("png")))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"format":"IMAGE"`) {
		t.Errorf("expected the created definition back, got %s", w.Body.String())
	}
	if repo.saved == nil || repo.saved.FileURL == nil || *repo.saved.FileURL != "https://cdn.wbbox.in/banner.png" {
		t.Errorf("unexpected saved template %+v", repo.saved)
	}

	w = httptest.NewRecorder()
	h.CreateImageTemplate(w, multipartTemplate(t, fields, "", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without a file, got %d", w.Code)
	}
}
