// internal/app/operator_reporter.go
package app

import (
	"context"
	"fmt"
	"strings"

	domainTelegram "course_trigger_engine/internal/domain/telegram"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// OperatorReporter posts a short report to the operator chat when a pass
// ends with failures. Clean passes stay silent.
type OperatorReporter struct {
	client domainTelegram.Client
	chatID int64
	log    *logrus.Entry
}

func NewOperatorReporter(client domainTelegram.Client, chatID int64, logger *logrus.Entry) *OperatorReporter {
	return &OperatorReporter{
		client: client,
		chatID: chatID,
		log:    logger.WithField("component", "operator_reporter"),
	}
}

func (r *OperatorReporter) ObserveRun(_ context.Context, summary RunSummary, err error) {
	if r.client == nil || r.chatID == 0 {
		return
	}
	if err == nil && !summary.HasErrors() {
		return
	}

	text := FormatRunSummary(summary, err)
	if sendErr := r.client.SendMessage(r.chatID, text, &telebot.SendOptions{ParseMode: telebot.ModeMarkdown}); sendErr != nil {
		r.log.WithError(sendErr).WithField("run_id", summary.RunID).Error("Failed to send run report to operator chat")
	}
}

// FormatRunSummary renders a summary for chat output.
func FormatRunSummary(s RunSummary, err error) string {
	var b strings.Builder
	if err != nil {
		b.WriteString("*Trigger run aborted*\n")
	} else if s.HasErrors() {
		b.WriteString("*Trigger run finished with errors*\n")
	} else {
		b.WriteString("*Trigger run finished*\n")
	}
	fmt.Fprintf(&b, "Run: `%s`\n", s.RunID)
	fmt.Fprintf(&b, "At: %s (%d ms)\n", s.StartedAt.Format("2006-01-02 15:04"), s.DurationMs)
	fmt.Fprintf(&b, "Schedules processed: %d, fired: %d, invalid: %d\n", s.NotificationsProcessed, s.SchedulesFired, s.InvalidSchedules)
	fmt.Fprintf(&b, "Notifications sent: %d, errors: %d\n", s.NotificationsSent, s.NotificationErrors)
	fmt.Fprintf(&b, "Modules published: %d, errors: %d", s.UnitsPublished, s.PublicationErrors)
	if err != nil {
		fmt.Fprintf(&b, "\nError: %s", err.Error())
	}
	return b.String()
}
