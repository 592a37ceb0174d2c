// internal/model/template.go
package model

import "time"

type TemplateDetail struct {
    TemplateName string     `db:"template_name" json:"template_name"`
    FileURL      *string    `db:"file_url" json:"file_url,omitempty"`
    FileHValue   *string    `db:"file_hvalue" json:"file_hvalue,omitempty"`
    TemplateType string     `db:"template_type" json:"template_type"`
    MediaType    *string    `db:"media_type" json:"media_type"`
    UploadedAt   *time.Time `db:"uploaded_at" json:"uploaded_at,omitempty"`
}
