// internal/model/customer.go
package model

// Contact is one row of a campaign's uploaded contact sheet.
type Contact struct {
    ID         int     `db:"id" json:"id"`
    CampaignID int     `db:"campaign_id" json:"campaign_id"`
    Name       *string `db:"name" json:"name"`
    MobileNo   string  `db:"mobile_no" json:"mobile_no"`
    EmailID    *string `db:"email_id" json:"email_id"`
}

// AudienceCount compares the shortlisted audience against every known customer.
type AudienceCount struct {
    TotalCustomers       int64 `json:"total_customers"`
    ShortlistedCustomers int64 `json:"shortlisted_customers"`
}
