// internal/model/outbound_message.go
package model

import "time"

// Media kinds a template message can carry in its header.
const (
    MediaText  = "text"
    MediaImage = "image"
    MediaVideo = "video"
)

// DispatchEvent records one accepted call to the messaging provider.
type DispatchEvent struct {
    ID             string     `db:"id" json:"id"`
    CampaignID     int        `db:"campaign_id" json:"campaign_id,omitempty"`
    TemplateName   string     `db:"template_name" json:"template_name"`
    Media          string     `db:"media" json:"media"`
    BasedOn        string     `db:"based_on" json:"based_on"`
    RecipientCount int        `db:"recipient_count" json:"recipient_count"`
    ProviderStatus int        `db:"provider_status" json:"provider_status"`
    ArchivedAt     *time.Time `db:"archived_at" json:"archived_at,omitempty"`
    CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}
