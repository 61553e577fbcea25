package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/Chambu-Digital/javic-collection-sub001/internal/jobs"
	"github.com/Chambu-Digital/javic-collection-sub001/internal/shared"
	"github.com/Chambu-Digital/javic-collection-sub001/internal/users"
)

// AuditActionAccessNotified marks a delivered access-change notification.
const AuditActionAccessNotified = "access.notified"

// EmailEnqueuer queues outgoing mail.
type EmailEnqueuer interface {
	EnqueueSendEmail(ctx context.Context, payload SendEmailPayload) (*asynq.TaskInfo, error)
}

// AuditRecorder persists audit entries.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// SessionPruner deletes session records that expired before a cutoff.
type SessionPruner interface {
	PruneExpiredSessions(ctx context.Context, before time.Time) (int64, error)
}

// ProcessorConfig collects the collaborators of a Processor. Any of them may
// be nil, in which case the matching step is skipped.
type ProcessorConfig struct {
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
	Mailer   EmailEnqueuer
	Audit    AuditRecorder
	Sessions SessionPruner
}

// Processor implements the task handlers run by the worker.
type Processor struct {
	logger   *slog.Logger
	metrics  *jobmetrics.Metrics
	mailer   EmailEnqueuer
	audit    AuditRecorder
	sessions SessionPruner
	now      func() time.Time
}

// NewProcessor constructs a Processor.
func NewProcessor(cfg ProcessorConfig) *Processor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		logger:   logger,
		metrics:  cfg.Metrics,
		mailer:   cfg.Mailer,
		audit:    cfg.Audit,
		sessions: cfg.Sessions,
		now:      time.Now,
	}
}

// Handlers lists every task type served by the processor.
func (p *Processor) Handlers() []TaskHandler {
	return []TaskHandler{
		{Type: TaskTypeSendEmail, Handler: p.HandleSendEmailTask},
		{Type: TaskAccessChanged, Handler: p.HandleAccessChangedTask},
		{Type: TaskPruneSessions, Handler: p.HandlePruneSessionsTask},
	}
}

// HandleSendEmailTask processes TaskTypeSendEmail tasks.
func (p *Processor) HandleSendEmailTask(ctx context.Context, t *asynq.Task) error {
	tracker := p.metrics.Track(TaskTypeSendEmail)
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return tracker.End(fmt.Errorf("decode email payload: %v: %w", err, asynq.SkipRetry))
	}
	if payload.To == "" {
		return tracker.End(fmt.Errorf("email without recipient: %w", asynq.SkipRetry))
	}
	// No mail transport is configured yet; delivery is logged only.
	p.logger.Info("email dispatched",
		slog.String("to", payload.To),
		slog.String("subject", payload.Subject),
		slog.String("correlation_id", payload.CorrelationID),
	)
	p.metrics.AddNotification("email")
	return tracker.End(nil)
}

// HandleAccessChangedTask audits a committed access change and emails the
// affected user.
func (p *Processor) HandleAccessChangedTask(ctx context.Context, t *asynq.Task) error {
	tracker := p.metrics.Track(TaskAccessChanged)
	var change users.AccessChange
	if err := json.Unmarshal(t.Payload(), &change); err != nil {
		return tracker.End(fmt.Errorf("decode access change: %v: %w", err, asynq.SkipRetry))
	}
	if change.UserID <= 0 {
		return tracker.End(fmt.Errorf("access change without user: %w", asynq.SkipRetry))
	}
	correlationID, _ := asynq.GetTaskID(ctx)

	if p.audit != nil {
		err := p.audit.Record(ctx, shared.AuditLog{
			ActorID:  change.ActorID,
			Action:   AuditActionAccessNotified,
			Entity:   users.AuditEntity,
			EntityID: strconv.FormatInt(change.UserID, 10),
			Meta: map[string]any{
				"role":           change.Role,
				"old_role":       change.OldRole,
				"added":          change.Added,
				"removed":        change.Removed,
				"correlation_id": correlationID,
			},
			At: p.now().UTC(),
		})
		if err != nil {
			return tracker.End(fmt.Errorf("record access notification: %w", err))
		}
		p.metrics.AddNotification("audit")
	}

	if p.mailer == nil || change.Email == "" {
		p.logger.Debug("access change without mail delivery", slog.Int64("user_id", change.UserID))
		return tracker.End(nil)
	}
	if _, err := p.mailer.EnqueueSendEmail(ctx, composeAccessEmail(change, correlationID)); err != nil {
		return tracker.End(fmt.Errorf("enqueue access email: %w", err))
	}
	return tracker.End(nil)
}

// HandlePruneSessionsTask deletes expired session records.
func (p *Processor) HandlePruneSessionsTask(ctx context.Context, t *asynq.Task) error {
	tracker := p.metrics.Track(TaskPruneSessions)
	if p.sessions == nil {
		return tracker.End(nil)
	}
	removed, err := p.sessions.PruneExpiredSessions(ctx, p.now().UTC())
	if err != nil {
		return tracker.End(fmt.Errorf("prune sessions: %w", err))
	}
	if removed > 0 {
		p.logger.Info("expired sessions pruned", slog.Int64("removed", removed))
	}
	return tracker.End(nil)
}
