package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/unclebandit/crm-campaign-backend/internal/model"
	"github.com/unclebandit/crm-campaign-backend/internal/repository"
)

// Archiver stores a dispatch event outside the database.
type Archiver interface {
	Archive(ctx context.Context, ev model.DispatchEvent) error
}

// ArchiveWorker processes dispatch events taken off the queue
type ArchiveWorker struct {
	EventRepo repository.DispatchEventRepositoryInterface
	Archiver  Archiver
	Timeout   time.Duration
}

// Constructor
func NewArchiveWorker(repo repository.DispatchEventRepositoryInterface, archiver Archiver) *ArchiveWorker {
	return &ArchiveWorker{
		EventRepo: repo,
		Archiver:  archiver,
		Timeout:   30 * time.Second,
	}
}

// Handle is a queue.Handler. Returning an error makes the queue retry, so
// Record must stay idempotent.
func (w *ArchiveWorker) Handle(body []byte) error {
	var ev model.DispatchEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("decode dispatch event: %w", err)
	}
	if ev.ID == "" {
		return fmt.Errorf("dispatch event without id")
	}

	ctx, cancel := context.WithTimeout(context.Background(), w.Timeout)
	defer cancel()

	if err := w.EventRepo.Record(ctx, &ev); err != nil {
		return err
	}

	// no object store configured
	if w.Archiver == nil {
		return nil
	}

	if err := w.Archiver.Archive(ctx, ev); err != nil {
		return err
	}
	if err := w.EventRepo.MarkArchived(ctx, ev.ID, time.Now().UTC()); err != nil {
		return err
	}

	logrus.WithField("dispatch_id", ev.ID).Info("🗄️ dispatch archived")
	return nil
}
