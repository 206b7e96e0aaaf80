package notify

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/hochfrequenz/changetrack/internal/domain"
)

// NotificationType represents the type of notification
type NotificationType int

const (
	NotifyInfo NotificationType = iota
	NotifySuccess
	NotifyWarning
	NotifyError
)

// Notification represents a notification to be sent
type Notification struct {
	Title   string
	Message string
	Type    NotificationType
}

// Notifier is the interface for sending notifications
type Notifier interface {
	Send(n Notification) error
}

// RunNotification builds the notification for a finished collection run.
func RunNotification(run domain.RunSummary) Notification {
	t := NotifySuccess
	if run.ParseWarnings > 0 {
		t = NotifyWarning
	}
	return Notification{
		Title: fmt.Sprintf("changetrack: %s..%s collected", run.StartRef, run.EndRef),
		Message: fmt.Sprintf("%s PR groups, %s compiler-related, %s commits without a PR reference",
			humanize.Comma(int64(run.Groups)),
			humanize.Comma(int64(run.CompilerGroups)),
			humanize.Comma(int64(run.ParseWarnings))),
		Type: t,
	}
}
