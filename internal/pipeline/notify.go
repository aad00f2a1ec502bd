package pipeline

import (
	"context"
	"log/slog"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelWarning Level = "warning"
)

// Notification is a user-facing toast.
type Notification struct {
	Level   Level
	Title   string
	Message string
	JobID   string
}

// Notifier receives user-facing outcomes of coordinator operations. Notify is
// called without any coordinator lock held.
type Notifier interface {
	Notify(n Notification)
}

type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// Discard drops every notification.
var Discard Notifier = NotifierFunc(func(Notification) {})

// LogNotifier writes notifications to a slog logger.
func LogNotifier(logger *slog.Logger) Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return NotifierFunc(func(n Notification) {
		level := slog.LevelInfo
		switch n.Level {
		case LevelError:
			level = slog.LevelError
		case LevelWarning:
			level = slog.LevelWarn
		}
		logger.Log(context.Background(), level, n.Title, slog.String("message", n.Message), slog.String("job_id", n.JobID))
	})
}
