package notify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"bloodlink/internal/model"
)

const (
	dispatchKeyPrefix = "dispatch:"
	requestSetPrefix  = "dispatch:request:"
	suppressionTTL    = 30 * 24 * time.Hour
)

// DispatchReport summarizes one dispatch pass.
type DispatchReport struct {
	Submitted  int
	Suppressed int
	Failed     int
}

// SuppressionStore persists the per-(request, recipient) dedupe markers.
// The redis-backed cache client satisfies it; when the store reports every
// marker as fresh (for example redis being down), idempotence degrades to
// the deterministic job identifier.
type SuppressionStore interface {
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	SAdd(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
	Delete(ctx context.Context, keys ...string) error
}

// Dispatcher fans a blood request out to its eligible recipients. Job
// identifiers are deterministic per (request, recipient), so a re-dispatch
// is idempotent at the identifier level; a redis marker additionally
// suppresses resubmission when available.
type Dispatcher struct {
	scheduler   Scheduler
	suppression SuppressionStore
	logger      *zap.Logger
}

// NewDispatcher builds a Dispatcher.
func NewDispatcher(scheduler Scheduler, suppression SuppressionStore, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{scheduler: scheduler, suppression: suppression, logger: logger}
}

// JobIdentifier derives the deterministic notification identifier for a
// (request, recipient) pair.
func JobIdentifier(requestID, recipientID string) string {
	return fmt.Sprintf("bloodreq:%s:%s", requestID, recipientID)
}

// Dispatch submits one immediate notification job per recipient. A failure
// for one recipient never prevents dispatch to the others.
func (d *Dispatcher) Dispatch(ctx context.Context, req *model.BloodRequest, recipients []model.User) DispatchReport {
	var report DispatchReport

	title := fmt.Sprintf("%s blood needed", req.BloodGroup)
	if req.IsUrgent {
		title = fmt.Sprintf("URGENT: %s blood needed", req.BloodGroup)
	}
	body := fmt.Sprintf("%s needs %d unit(s) of %s within %.0f km of you.",
		req.PatientName, req.UnitsRequired, req.BloodGroup, req.SearchRadiusKm)

	for i := range recipients {
		recipient := recipients[i]
		identifier := JobIdentifier(req.ID, recipient.ID)

		fresh, _ := d.suppression.SetNX(ctx, dispatchKeyPrefix+identifier, []byte("1"), suppressionTTL)
		if !fresh {
			report.Suppressed++
			continue
		}

		n := Notification{
			Title:       title,
			Body:        body,
			RequestID:   req.ID,
			RecipientID: recipient.ID,
		}
		if err := d.scheduler.Schedule(ctx, identifier, n, Immediate()); err != nil {
			d.logger.Warn("notification dispatch failed",
				zap.String("identifier", identifier), zap.Error(err))
			// Allow a retry to resubmit this pair.
			_ = d.suppression.Delete(ctx, dispatchKeyPrefix+identifier)
			report.Failed++
			continue
		}

		_ = d.suppression.SAdd(ctx, requestSetPrefix+req.ID, recipient.ID)
		report.Submitted++
	}

	return report
}

// CancelForRequest cancels every job scheduled for the request and clears
// its suppression state. Called when a request is deleted.
func (d *Dispatcher) CancelForRequest(ctx context.Context, requestID string) {
	recipients, _ := d.suppression.SMembers(ctx, requestSetPrefix+requestID)
	for _, recipientID := range recipients {
		identifier := JobIdentifier(requestID, recipientID)
		if err := d.scheduler.Cancel(ctx, identifier); err != nil {
			d.logger.Warn("notification cancel failed",
				zap.String("identifier", identifier), zap.Error(err))
		}
		_ = d.suppression.Delete(ctx, dispatchKeyPrefix+identifier)
	}
	_ = d.suppression.Delete(ctx, requestSetPrefix+requestID)
}
