// internal/model/options.go
package model

// BrandNode is one brand → section → product → model → item path.
type BrandNode struct {
    Brand   *string `db:"brand" json:"brand"`
    Section *string `db:"section" json:"section"`
    Product *string `db:"product" json:"product"`
    Model   *string `db:"model" json:"model"`
    Item    *string `db:"item" json:"item"`
}

// CampaignOptions lists the values an operator can pick from when building a campaign.
type CampaignOptions struct {
    RScores     []int64  `json:"r_scores"`
    FScores     []int64  `json:"f_scores"`
    MScores     []int64  `json:"m_scores"`
    RFMSegments []string `json:"rfm_segments"`

    Branches       []string            `json:"branches"`
    BranchCityMap  map[string][]string `json:"branch_city_map"`
    BranchStateMap map[string][]string `json:"branch_state_map"`

    Brands         []string    `json:"brands"`
    Sections       []string    `json:"sections"`
    Products       []string    `json:"products"`
    Models         []string    `json:"models"`
    Items          []string    `json:"items"`
    BrandHierarchy []BrandNode `json:"brand_hierarchy"`
}

// GeoRow is a distinct (branch, city, state) triple from the analysis table.
type GeoRow struct {
    Branch *string `db:"branch"`
    City   *string `db:"city"`
    State  *string `db:"state"`
}
