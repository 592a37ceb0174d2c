package whatsapp_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	appErrors "github.com/unclebandit/crm-campaign-backend/internal/errors"
	"github.com/unclebandit/crm-campaign-backend/internal/model"
	"github.com/unclebandit/crm-campaign-backend/internal/whatsapp"
)

func newClient(srv *httptest.Server) *whatsapp.Client {
	return whatsapp.NewClient(whatsapp.Config{
		BaseURL: srv.URL + "/",
		APIKey:  "secret",
		Channel: "917000000000",
		Timeout: 2 * time.Second,
	})
}

func TestSendTemplate_PostsPayloadWithAuthHeaders(t *testing.T) {
	var gotPath string
	var gotAuth, gotKey string
	var gotBody whatsapp.TemplateMessage

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotKey = r.Header.Get("apikey")
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"queued"}`))
	}))
	defer srv.Close()

	msg := whatsapp.NewTemplateMessage("919876543210,919876543211", "diwali_offer", "en", model.MediaImage, "https://cdn.example.com/a.jpg")
	resp, err := newClient(srv).SendTemplate(context.Background(), msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/messages/send-template/917000000000" {
		t.Errorf("unexpected path %s", gotPath)
	}
	if gotAuth != "Bearer secret" || gotKey != "secret" {
		t.Errorf("unexpected auth headers %q %q", gotAuth, gotKey)
	}
	if gotBody.To != "919876543210,919876543211" || gotBody.Template.Name != "diwali_offer" {
		t.Errorf("unexpected payload %+v", gotBody)
	}
	if len(gotBody.Template.Components) != 1 || gotBody.Template.Components[0].Parameters[0].Image.Link != "https://cdn.example.com/a.jpg" {
		t.Errorf("expected image header component, got %+v", gotBody.Template.Components)
	}
	if string(resp) != `{"status":"queued"}` {
		t.Errorf("unexpected response %s", resp)
	}
}

func TestNewTemplateMessage_TextHasNoComponents(t *testing.T) {
	msg := whatsapp.NewTemplateMessage("91999", "welcome", "en", model.MediaText, "")
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	_ = json.Unmarshal(data, &decoded)
	tmpl := decoded["template"].(map[string]any)
	if comps, ok := tmpl["components"].([]any); !ok || len(comps) != 0 {
		t.Errorf("expected empty components array, got %v", tmpl["components"])
	}
	if decoded["messaging_product"] != "whatsapp" || decoded["type"] != "template" {
		t.Errorf("unexpected envelope %v", decoded)
	}
}

func TestDo_NonSuccessBecomesUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":"template not approved"}`))
	}))
	defer srv.Close()

	_, err := newClient(srv).SyncTemplate(context.Background(), "diwali_offer")

	var upstream *appErrors.ErrUpstream
	if !errors.As(err, &upstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	if upstream.StatusCode != http.StatusUnprocessableEntity || string(upstream.Body) != `{"error":"template not approved"}` {
		t.Errorf("unexpected upstream error %+v", upstream)
	}
}

func TestSendText_UsesTextEndpoint(t *testing.T) {
	var gotPath string
	var gotBody whatsapp.TextMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	resp, err := newClient(srv).SendText(context.Background(), "919876543210", "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/messages/send-text/917000000000" {
		t.Errorf("unexpected path %s", gotPath)
	}
	if gotBody.Text.Body != "hello" || gotBody.To != "919876543210" {
		t.Errorf("unexpected payload %+v", gotBody)
	}
	if string(resp) != `"ok"` {
		t.Errorf("expected non-JSON body to be quoted, got %s", resp)
	}
}

func TestUploadMedia(t *testing.T) {
	var gotPath, gotName, gotType, gotContent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		file, header, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		b, _ := io.ReadAll(file)
		gotName, gotType, gotContent = header.Filename, header.Header.Get("Content-Type"), string(b)
		w.Write([]byte(`{"data":{"HValue":"4::aGFuZGxl","ImageUrl":"https://cdn.wbbox.in/promo.mp4"}}`))
	}))
	defer srv.Close()

	media, err := newClient(srv).UploadMedia(context.Background(), "promo.mp4", "video/mp4", []byte("mp4 bytes"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/uploads/917000000000" {
		t.Errorf("unexpected path %s", gotPath)
	}
	if gotName != "promo.mp4" || gotType != "video/mp4" || gotContent != "mp4 bytes" {
		t.Errorf("unexpected part %s %s %q", gotName, gotType, gotContent)
	}
	if media.Handle != "4::aGFuZGxl" || media.URL != "https://cdn.wbbox.in/promo.mp4" {
		t.Errorf("unexpected media %+v", media)
	}
}

func TestUploadMedia_MissingHandle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{}}`))
	}))
	defer srv.Close()

	_, err := newClient(srv).UploadMedia(context.Background(), "a.jpg", "image/jpeg", []byte("x"))
	var upstream *appErrors.ErrUpstream
	if !errors.As(err, &upstream) || upstream.StatusCode != http.StatusBadGateway {
		t.Errorf("expected a 502 upstream error, got %v", err)
	}
}

func TestNewMediaTemplateDefinition(t *testing.T) {
	def := whatsapp.NewMediaTemplateDefinition("summer_promo", "en", "MARKETING", model.MediaVideo, "h1", "Cool deals", "")
	b, _ := json.Marshal(def)
	want := `{"name":"summer_promo","language":"en","category":"MARKETING","components":[{"type":"HEADER","format":"VIDEO","example":{"header_handle":["h1"]}},{"type":"BODY","text":"Cool deals"}]}`
	if string(b) != want {
		t.Errorf("unexpected definition\n got %s\nwant %s", b, want)
	}
}
