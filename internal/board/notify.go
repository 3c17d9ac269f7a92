package board

import "log"

// NotificationKind classifies a user-visible board notification.
type NotificationKind string

const (
	// NotifyCommitted reports a transition confirmed by the system of record.
	NotifyCommitted NotificationKind = "committed"
	// NotifyCommitFailed reports a rejected transition; the board has been reloaded.
	NotifyCommitFailed NotificationKind = "commit_failed"
	// NotifyBulkCompleted reports the end of a bulk action.
	NotifyBulkCompleted NotificationKind = "bulk_completed"
)

// Notification is a non-blocking message for the person using the board.
type Notification struct {
	Kind          NotificationKind `json:"kind"`
	JobID         string           `json:"job_id"`
	ApplicationID string           `json:"application_id,omitempty"`
	From          string           `json:"from,omitempty"`
	To            string           `json:"to,omitempty"`
	Message       string           `json:"message"`
	Err           error            `json:"-"`
}

// Notifier receives board notifications. Implementations must not block.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

// Notify implements Notifier.
func (f NotifierFunc) Notify(n Notification) { f(n) }

// LogNotifier writes notifications to the standard logger.
type LogNotifier struct{}

// Notify implements Notifier.
func (LogNotifier) Notify(n Notification) {
	if n.Err != nil {
		log.Printf("[board] %s job=%s app=%s: %s: %v", n.Kind, n.JobID, n.ApplicationID, n.Message, n.Err)
		return
	}
	log.Printf("[board] %s job=%s app=%s: %s", n.Kind, n.JobID, n.ApplicationID, n.Message)
}
