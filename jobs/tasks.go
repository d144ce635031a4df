package jobs

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskQuoteAdminNotify alerts the business about a newly submitted quote request.
	TaskQuoteAdminNotify = "quote:notify_admin"

	adminNotifyMaxRetry = 3
	adminNotifyTimeout  = time.Minute
)

// AdminNotificationPayload is a snapshot of the submitted quote request.
type AdminNotificationPayload struct {
	QuoteID     string    `json:"quoteId"`
	ReferenceNo string    `json:"referenceNo"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	Company     string    `json:"company,omitempty"`
	Service     string    `json:"service,omitempty"`
	Location    string    `json:"location,omitempty"`
	Message     string    `json:"message"`
	SubmittedAt time.Time `json:"submittedAt"`
}

var errEmptyReference = errors.New("jobs: admin notification payload without reference number")

// NewAdminNotificationTask constructs the admin notification task.
func NewAdminNotificationTask(payload AdminNotificationPayload) (*asynq.Task, error) {
	if payload.ReferenceNo == "" {
		return nil, errEmptyReference
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskQuoteAdminNotify, data,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(adminNotifyMaxRetry),
		asynq.Timeout(adminNotifyTimeout),
	), nil
}

// ParseAdminNotification decodes a task payload.
func ParseAdminNotification(t *asynq.Task) (AdminNotificationPayload, error) {
	var payload AdminNotificationPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return AdminNotificationPayload{}, err
	}
	if payload.ReferenceNo == "" {
		return AdminNotificationPayload{}, errEmptyReference
	}
	return payload, nil
}
