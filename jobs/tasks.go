package jobs

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/Chambu-Digital/javic-collection-sub001/internal/rbac"
	"github.com/Chambu-Digital/javic-collection-sub001/internal/users"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskAccessChanged fans out a committed role or grant change.
	TaskAccessChanged = "access:changed"
	// TaskPruneSessions removes expired login session records.
	TaskPruneSessions = "sessions:prune"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To            string `json:"to"`
	Subject       string `json:"subject"`
	Body          string `json:"body"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data, asynq.MaxRetry(5)), nil
}

// NewAccessChangedTask wraps change into a task with a unique id.
func NewAccessChangedTask(change users.AccessChange) (*asynq.Task, error) {
	if change.UserID <= 0 {
		return nil, fmt.Errorf("jobs: access change without user id")
	}
	data, err := json.Marshal(change)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAccessChanged, data, asynq.TaskID(uuid.NewString()), asynq.MaxRetry(10)), nil
}

// NewPruneSessionsTask constructs the periodic session cleanup task.
func NewPruneSessionsTask() *asynq.Task {
	return asynq.NewTask(TaskPruneSessions, nil, asynq.MaxRetry(1))
}

// composeAccessEmail renders the message sent to a user whose access changed.
func composeAccessEmail(change users.AccessChange, correlationID string) SendEmailPayload {
	var b strings.Builder
	b.WriteString("Your Javic Collection account access was updated.\n\n")
	if change.OldRole != "" {
		fmt.Fprintf(&b, "Role: %s (was %s)\n", change.Role.Label(), change.OldRole.Label())
	} else {
		fmt.Fprintf(&b, "Role: %s\n", change.Role.Label())
	}
	if len(change.Added) > 0 {
		fmt.Fprintf(&b, "Granted: %s\n", joinPermissions(change.Added))
	}
	if len(change.Removed) > 0 {
		fmt.Fprintf(&b, "Revoked: %s\n", joinPermissions(change.Removed))
	}
	b.WriteString("\nIf you did not expect this change, contact a super admin.\n")
	return SendEmailPayload{
		To:            change.Email,
		Subject:       "Your Javic Collection access changed",
		Body:          b.String(),
		CorrelationID: correlationID,
	}
}

func joinPermissions(ps []rbac.Permission) string {
	parts := make([]string, 0, len(ps))
	for _, p := range ps {
		parts = append(parts, p.String())
	}
	return strings.Join(parts, ", ")
}
