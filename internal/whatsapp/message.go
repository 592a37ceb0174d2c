package whatsapp

import (
	"strings"

	"github.com/unclebandit/crm-campaign-backend/internal/model"
)

type TemplateMessage struct {
	MessagingProduct string       `json:"messaging_product"`
	RecipientType    string       `json:"recipient_type"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	Template         TemplateBody `json:"template"`
}

type TemplateBody struct {
	Name       string      `json:"name"`
	Language   Language    `json:"language"`
	Components []Component `json:"components"`
}

type Language struct {
	Code string `json:"code"`
}

type Component struct {
	Type       string      `json:"type"`
	Parameters []Parameter `json:"parameters"`
}

type Parameter struct {
	Type  string     `json:"type"`
	Image *MediaLink `json:"image,omitempty"`
	Video *MediaLink `json:"video,omitempty"`
}

type MediaLink struct {
	Link string `json:"link"`
}

type TextMessage struct {
	MessagingProduct string   `json:"messaging_product"`
	RecipientType    string   `json:"recipient_type"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             TextBody `json:"text"`
}

type TextBody struct {
	Body string `json:"body"`
}

// NewTemplateMessage builds a template send. For image and video media the
// link goes into a header component; text templates carry no components.
func NewTemplateMessage(to, name, language, media, link string) TemplateMessage {
	msg := TemplateMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "template",
		Template: TemplateBody{
			Name:       name,
			Language:   Language{Code: language},
			Components: []Component{},
		},
	}

	var param Parameter
	switch media {
	case model.MediaImage:
		param = Parameter{Type: model.MediaImage, Image: &MediaLink{Link: link}}
	case model.MediaVideo:
		param = Parameter{Type: model.MediaVideo, Video: &MediaLink{Link: link}}
	default:
		return msg
	}
	msg.Template.Components = append(msg.Template.Components, Component{
		Type:       "header",
		Parameters: []Parameter{param},
	})
	return msg
}

// UploadedMedia is the provider's answer to a media upload.
type UploadedMedia struct {
	Handle string `json:"HValue"`
	URL    string `json:"ImageUrl"`
}

// TemplateDefinition is the create-templates payload for media templates.
type TemplateDefinition struct {
	Name       string                `json:"name"`
	Language   string                `json:"language"`
	Category   string                `json:"category"`
	Components []DefinitionComponent `json:"components"`
}

type DefinitionComponent struct {
	Type    string         `json:"type"`
	Format  string         `json:"format,omitempty"`
	Text    string         `json:"text,omitempty"`
	Example *HeaderExample `json:"example,omitempty"`
}

type HeaderExample struct {
	HeaderHandle []string `json:"header_handle"`
}

// NewMediaTemplateDefinition builds a HEADER/BODY/FOOTER template whose header
// shows the uploaded image or video. An empty footer is left out.
func NewMediaTemplateDefinition(name, language, category, media, handle, body, footer string) TemplateDefinition {
	def := TemplateDefinition{
		Name:     name,
		Language: language,
		Category: category,
		Components: []DefinitionComponent{
			{Type: "HEADER", Format: strings.ToUpper(media), Example: &HeaderExample{HeaderHandle: []string{handle}}},
			{Type: "BODY", Text: body},
		},
	}
	if strings.TrimSpace(footer) != "" {
		def.Components = append(def.Components, DefinitionComponent{Type: "FOOTER", Text: footer})
	}
	return def
}
