// internal/service/campaign_service.go
package service

import (
    "bytes"
    "context"
    "fmt"
    "sort"
    "time"

    "github.com/sirupsen/logrus"
    "golang.org/x/sync/errgroup"

    "github.com/unclebandit/crm-campaign-backend/internal/audience"
    appErrors "github.com/unclebandit/crm-campaign-backend/internal/errors"
    "github.com/unclebandit/crm-campaign-backend/internal/export"
    "github.com/unclebandit/crm-campaign-backend/internal/filter"
    "github.com/unclebandit/crm-campaign-backend/internal/model"
    "github.com/unclebandit/crm-campaign-backend/internal/repository"
)

// OptionsCache is implemented by cache.OptionsCache.
type OptionsCache interface {
    Get(ctx context.Context) (*model.CampaignOptions, bool, error)
    Set(ctx context.Context, opts *model.CampaignOptions) error
}

type CampaignService struct {
    CampaignRepo repository.CampaignRepositoryInterface
    ContactRepo  repository.ContactRepositoryInterface
    AudienceRepo repository.AudienceRepositoryInterface
    OptionsRepo  repository.OptionsRepositoryInterface
    Cache        OptionsCache

    RunCountMode string
}

func (s *CampaignService) CreateCampaign(ctx context.Context, in CampaignInput) (*model.Campaign, error) {
    if err := in.Validate(); err != nil {
        return nil, err
    }
    c := in.ToModel()
    if err := s.CampaignRepo.Create(ctx, c); err != nil {
        return nil, err
    }
    logrus.WithField("campaign_id", c.ID).Info("campaign created")
    return c, nil
}

// UpdateCampaign replaces every field of campaign id.
func (s *CampaignService) UpdateCampaign(ctx context.Context, id int, in CampaignInput) (*model.Campaign, error) {
    if err := in.Validate(); err != nil {
        return nil, err
    }
    existing, err := s.CampaignRepo.GetByID(ctx, id)
    if err != nil {
        return nil, err
    }
    c := in.ToModel()
    c.ID = id
    c.CreatedAt = existing.CreatedAt
    if err := s.CampaignRepo.Update(ctx, c); err != nil {
        return nil, err
    }
    return c, nil
}

func (s *CampaignService) DeleteCampaign(ctx context.Context, id int) error {
    return s.CampaignRepo.Delete(ctx, id)
}

// GetCampaignDetails fetches a campaign by ID
func (s *CampaignService) GetCampaignDetails(ctx context.Context, id int) (*model.Campaign, error) {
    return s.CampaignRepo.GetByID(ctx, id)
}

// ListCampaigns fetches campaigns with pagination
func (s *CampaignService) ListCampaigns(ctx context.Context, page, pageSize int) ([]model.Campaign, map[string]int, error) {
    if page < 1 {
        page = 1
    }
    if pageSize < 1 {
        pageSize = 20
    }
    if pageSize > 100 {
        pageSize = 100
    }
    offset := (page - 1) * pageSize

    ptrs, total, err := s.CampaignRepo.ListCampaigns(ctx, offset, pageSize)
    if err != nil {
        return nil, nil, err
    }

    campaigns := make([]model.Campaign, len(ptrs))
    for i, c := range ptrs {
        campaigns[i] = *c
    }

    totalPages := (total + pageSize - 1) / pageSize
    pagination := map[string]int{
        "page":        page,
        "page_size":   pageSize,
        "total_count": total,
        "total_pages": totalPages,
    }

    return campaigns, pagination, nil
}

// RunList filters campaigns by from_date/to_date (YYYY-MM-DD). With neither it
// lists the campaigns active today.
func (s *CampaignService) RunList(ctx context.Context, fromDate, toDate string) ([]*model.Campaign, error) {
    from, err := optionalDay("from_date", fromDate)
    if err != nil {
        return nil, err
    }
    to, err := optionalDay("to_date", toDate)
    if err != nil {
        return nil, err
    }
    return s.CampaignRepo.ListForRun(ctx, from, to)
}

func optionalDay(field, raw string) (*time.Time, error) {
    d, err := filter.ParseDate(raw)
    if err != nil {
        return nil, appErrors.NewValidation("%s: %v", field, err)
    }
    if d.IsZero() {
        return nil, nil
    }
    return &d.Time, nil
}

// RunDetails is the campaign plus its labels and shortlisted count.
func (s *CampaignService) RunDetails(ctx context.Context, id int) (*model.RunDetails, error) {
    c, err := s.CampaignRepo.GetByID(ctx, id)
    if err != nil {
        return nil, err
    }

    q, err := audience.CountForCampaign(filter.FromCampaign(c), c.ID, s.RunCountMode)
    if err != nil {
        return nil, err
    }
    count, err := s.AudienceRepo.Count(ctx, q)
    if err != nil {
        return nil, err
    }

    return &model.RunDetails{
        Campaign:         *c,
        RFMSegmentLabel:  c.SegmentLabel(),
        BrandLabel:       c.BrandLabel(),
        ShortlistedCount: count,
    }, nil
}

// Options returns the campaign form options, served from cache when possible.
func (s *CampaignService) Options(ctx context.Context) (*model.CampaignOptions, error) {
    if s.Cache != nil {
        cached, ok, err := s.Cache.Get(ctx)
        if err != nil {
            logrus.WithError(err).Warn("⚠️ options cache read failed")
        } else if ok {
            return cached, nil
        }
    }

    opts, err := s.loadOptions(ctx)
    if err != nil {
        return nil, err
    }

    if s.Cache != nil {
        if err := s.Cache.Set(ctx, opts); err != nil {
            logrus.WithError(err).Warn("⚠️ options cache write failed")
        }
    }
    return opts, nil
}

func (s *CampaignService) loadOptions(ctx context.Context) (*model.CampaignOptions, error) {
    opts := &model.CampaignOptions{}
    var geo []model.GeoRow

    g, gctx := errgroup.WithContext(ctx)
    g.Go(func() (err error) {
        opts.RScores, err = s.OptionsRepo.DistinctScores(gctx, "r_score")
        return err
    })
    g.Go(func() (err error) {
        opts.FScores, err = s.OptionsRepo.DistinctScores(gctx, "f_score")
        return err
    })
    g.Go(func() (err error) {
        opts.MScores, err = s.OptionsRepo.DistinctScores(gctx, "m_score")
        return err
    })
    g.Go(func() (err error) {
        opts.RFMSegments, err = s.OptionsRepo.DistinctSegments(gctx)
        return err
    })
    g.Go(func() (err error) {
        geo, err = s.OptionsRepo.GeoRows(gctx)
        return err
    })
    g.Go(func() (err error) {
        opts.BrandHierarchy, err = s.OptionsRepo.BrandNodes(gctx)
        return err
    })
    if err := g.Wait(); err != nil {
        return nil, fmt.Errorf("load campaign options: %w", err)
    }

    opts.Branches, opts.BranchCityMap, opts.BranchStateMap = branchMaps(geo)
    opts.Brands, opts.Sections, opts.Products, opts.Models, opts.Items = brandLevels(opts.BrandHierarchy)
    return opts, nil
}

// branchMaps groups distinct cities and states under each branch.
func branchMaps(rows []model.GeoRow) ([]string, map[string][]string, map[string][]string) {
    cities := map[string][]string{}
    states := map[string][]string{}
    var branches []string
    for _, r := range rows {
        if r.Branch == nil || *r.Branch == "" {
            continue
        }
        b := *r.Branch
        if _, seen := cities[b]; !seen {
            branches = append(branches, b)
            cities[b] = []string{}
            states[b] = []string{}
        }
        if r.City != nil && *r.City != "" {
            cities[b] = appendUnique(cities[b], *r.City)
        }
        if r.State != nil && *r.State != "" {
            states[b] = appendUnique(states[b], *r.State)
        }
    }
    sort.Strings(branches)
    return branches, cities, states
}

func brandLevels(nodes []model.BrandNode) (brands, sections, products, models, items []string) {
    collect := func(dst []string, v *string) []string {
        if v == nil || *v == "" {
            return dst
        }
        return appendUnique(dst, *v)
    }
    for _, n := range nodes {
        brands = collect(brands, n.Brand)
        sections = collect(sections, n.Section)
        products = collect(products, n.Product)
        models = collect(models, n.Model)
        items = collect(items, n.Item)
    }
    for _, s := range [][]string{brands, sections, products, models, items} {
        sort.Strings(s)
    }
    return brands, sections, products, models, items
}

func appendUnique(list []string, v string) []string {
    for _, existing := range list {
        if existing == v {
            return list
        }
    }
    return append(list, v)
}

// CampaignNumbersXLSX exports the campaign's resolved audience.
func (s *CampaignService) CampaignNumbersXLSX(ctx context.Context, id int) (*bytes.Buffer, error) {
    c, err := s.CampaignRepo.GetByID(ctx, id)
    if err != nil {
        return nil, err
    }
    q, err := audience.ResolveInWindow(audience.Compile(filter.FromCampaign(c)), c.ID)
    if err != nil {
        return nil, err
    }
    cur, err := s.AudienceRepo.Open(ctx, q)
    if err != nil {
        return nil, err
    }
    defer cur.Close()
    return export.CursorToXLSX(cur)
}

// UploadTemplateXLSX is the empty contact sheet operators fill in.
func (s *CampaignService) UploadTemplateXLSX() (*bytes.Buffer, error) {
    return export.WriteXLSX(export.ContactColumns, nil)
}

func (s *CampaignService) ContactsXLSX(ctx context.Context, id int) (*bytes.Buffer, error) {
    contacts, err := s.campaignContacts(ctx, id)
    if err != nil {
        return nil, err
    }
    rows := make([][]string, len(contacts))
    for i, c := range contacts {
        rows[i] = []string{deref(c.Name), c.MobileNo, deref(c.EmailID)}
    }
    return export.WriteXLSX(export.ContactColumns, rows)
}

// UploadedNumbers joins the campaign's uploaded mobile numbers for dispatch.
func (s *CampaignService) UploadedNumbers(ctx context.Context, id int) (string, error) {
    contacts, err := s.campaignContacts(ctx, id)
    if err != nil {
        return "", err
    }
    numbers := make([]string, len(contacts))
    for i, c := range contacts {
        numbers[i] = c.MobileNo
    }
    return export.DispatchString(numbers), nil
}

func (s *CampaignService) campaignContacts(ctx context.Context, id int) ([]model.Contact, error) {
    if _, err := s.CampaignRepo.GetByID(ctx, id); err != nil {
        return nil, err
    }
    return s.ContactRepo.ListByCampaign(ctx, id)
}

func deref(s *string) string {
    if s == nil {
        return ""
    }
    return *s
}
