package service

import (
    "bytes"
    "context"
    "io"

    "github.com/sirupsen/logrus"
    "golang.org/x/sync/errgroup"

    "github.com/unclebandit/crm-campaign-backend/internal/audience"
    "github.com/unclebandit/crm-campaign-backend/internal/export"
    "github.com/unclebandit/crm-campaign-backend/internal/filter"
    "github.com/unclebandit/crm-campaign-backend/internal/model"
    "github.com/unclebandit/crm-campaign-backend/internal/repository"
)

// AudienceService resolves ad-hoc criteria into customer lists.
type AudienceService struct {
    AudienceRepo repository.AudienceRepositoryInterface
    BatchSize    int
}

// StreamCSV writes the matching customers to w in batches.
func (s *AudienceService) StreamCSV(ctx context.Context, w io.Writer, crit filter.Criteria) (int, error) {
    q, err := audience.Resolve(audience.Compile(crit))
    if err != nil {
        return 0, err
    }
    logrus.WithField("shape", q.Shape.String()).Debug("streaming audience")

    cur, err := s.AudienceRepo.Open(ctx, q)
    if err != nil {
        return 0, err
    }
    defer cur.Close()

    return export.StreamCSV(w, cur, s.BatchSize)
}

func (s *AudienceService) ExportXLSX(ctx context.Context, crit filter.Criteria) (*bytes.Buffer, error) {
    q, err := audience.Resolve(audience.Compile(crit))
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

// Count returns the shortlisted audience size next to the customer total.
func (s *AudienceService) Count(ctx context.Context, crit filter.Criteria) (*model.AudienceCount, error) {
    totalQ, err := audience.CountTotal()
    if err != nil {
        return nil, err
    }
    shortQ, err := audience.CountShortlisted(audience.Compile(crit))
    if err != nil {
        return nil, err
    }

    var out model.AudienceCount
    g, gctx := errgroup.WithContext(ctx)
    g.Go(func() (err error) {
        out.TotalCustomers, err = s.AudienceRepo.Count(gctx, totalQ)
        return err
    })
    g.Go(func() (err error) {
        out.ShortlistedCustomers, err = s.AudienceRepo.Count(gctx, shortQ)
        return err
    })
    if err := g.Wait(); err != nil {
        return nil, err
    }
    return &out, nil
}
