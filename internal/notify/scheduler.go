package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Notification is the payload handed to the scheduling capability.
type Notification struct {
	Title       string `json:"title"`
	Body        string `json:"body"`
	RequestID   string `json:"request_id"`
	RecipientID string `json:"recipient_id"`
}

// Trigger describes when a scheduled notification fires. A zero At means
// immediate delivery.
type Trigger struct {
	At time.Time
}

// Immediate returns the immediate-delivery trigger.
func Immediate() Trigger { return Trigger{} }

// Scheduler is the consumed notification scheduling capability. Submitting
// two jobs under the same identifier must dedupe or overwrite; actual
// delivery is asynchronous and outside this engine's guarantees.
type Scheduler interface {
	Schedule(ctx context.Context, identifier string, n Notification, t Trigger) error
	Cancel(ctx context.Context, identifier string) error
	CancelAll(ctx context.Context) error
}

// LogScheduler is the shipping Scheduler: it records submissions in the
// process log. Delivery mechanics live outside this system.
type LogScheduler struct {
	logger *zap.Logger
}

// NewLogScheduler builds a log-backed scheduler.
func NewLogScheduler(logger *zap.Logger) *LogScheduler {
	return &LogScheduler{logger: logger}
}

func (s *LogScheduler) Schedule(ctx context.Context, identifier string, n Notification, t Trigger) error {
	s.logger.Info("notification scheduled",
		zap.String("identifier", identifier),
		zap.String("recipient", n.RecipientID),
		zap.String("request", n.RequestID),
		zap.String("title", n.Title))
	return nil
}

func (s *LogScheduler) Cancel(ctx context.Context, identifier string) error {
	s.logger.Info("notification cancelled", zap.String("identifier", identifier))
	return nil
}

func (s *LogScheduler) CancelAll(ctx context.Context) error {
	s.logger.Info("all notifications cancelled")
	return nil
}
