// internal/infra/telegram/operator_handlers.go
package telegram

import (
	"context"

	"course_trigger_engine/internal/app"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// Runner triggers passes and remembers the last one.
type Runner interface {
	Run(ctx context.Context) (app.RunSummary, error)
	LastRun() (app.RunSummary, bool)
}

const helpText = "Operator commands:\n\n" +
	"`/run`\n - Run one trigger pass now and show its summary.\n\n" +
	"`/last_run`\n - Show the summary of the most recent pass.\n\n" +
	"`/help`\n - Show this message."

// OperatorHandlers serves the operator chat. Messages from any other chat are refused.
type OperatorHandlers struct {
	runner         Runner
	operatorChatID int64
	logger         *logrus.Entry
}

func NewOperatorHandlers(runner Runner, operatorChatID int64, baseLogger *logrus.Entry) *OperatorHandlers {
	return &OperatorHandlers{
		runner:         runner,
		operatorChatID: operatorChatID,
		logger:         baseLogger.WithField("handler_group", "operator"),
	}
}

// Register wires the commands on b.
func (h *OperatorHandlers) Register(b *telebot.Bot) {
	b.Handle("/start", h.Help)
	b.Handle("/help", h.Help)
	b.Handle("/run", h.Run)
	b.Handle("/last_run", h.LastRun)
}

func (h *OperatorHandlers) authorized(c telebot.Context, command string) (*logrus.Entry, bool) {
	logCtx := h.logger.WithField("command", command)
	if c.Chat() != nil {
		logCtx = logCtx.WithField("chat_id", c.Chat().ID)
	}
	if c.Chat() == nil || c.Chat().ID != h.operatorChatID {
		logCtx.Warn("Refused command from non-operator chat")
		return logCtx, false
	}
	return logCtx, true
}

func (h *OperatorHandlers) Help(c telebot.Context) error {
	if _, ok := h.authorized(c, "/help"); !ok {
		return c.Send("This bot only answers its operator chat.")
	}
	return c.Send(helpText, &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
}

func (h *OperatorHandlers) Run(c telebot.Context) error {
	logCtx, ok := h.authorized(c, "/run")
	if !ok {
		return c.Send("This bot only answers its operator chat.")
	}
	logCtx.Info("Processing /run command")

	summary, err := h.runner.Run(context.Background())
	if err != nil {
		logCtx.WithError(err).Error("Operator-triggered run aborted")
	}
	return c.Send(app.FormatRunSummary(summary, err), &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
}

func (h *OperatorHandlers) LastRun(c telebot.Context) error {
	if _, ok := h.authorized(c, "/last_run"); !ok {
		return c.Send("This bot only answers its operator chat.")
	}
	summary, found := h.runner.LastRun()
	if !found {
		return c.Send("No run recorded since start.")
	}
	return c.Send(app.FormatRunSummary(summary, nil), &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
}
