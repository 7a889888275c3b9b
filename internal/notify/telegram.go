// Package notify reports run outcomes to a Telegram chat.
package notify

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"go-jobspider/internal/store"
)

// maxListedJobs keeps the summary under Telegram's message size limit.
const maxListedJobs = 15

type Telegram struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}

	//turn this on in case of debug
	//api.Debug = true

	return &Telegram{api: api, chatID: chatID}, nil
}

func (t *Telegram) send(text string) error {
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	_, err := t.api.Send(msg)
	return err
}

func (t *Telegram) SendSummary(ctx context.Context, result store.Result) error {
	return t.send(FormatSummary(result))
}

func (t *Telegram) SendError(ctx context.Context, runID string, err error) error {
	return t.send(FormatError(runID, err))
}

// FormatSummary renders a run as a Telegram HTML message.
func FormatSummary(result store.Result) string {
	m := result.Metrics
	var b strings.Builder

	fmt.Fprintf(&b, "🕷 <b>Spider run %s</b>\n", html.EscapeString(shortID(result.RunID)))
	fmt.Fprintf(&b, "📋 Listings: %d\n", m.TotalJobs)
	fmt.Fprintf(&b, "✅ Extracted: %d   ❌ Failed: %d\n", len(result.Jobs), m.FailedScrapes)
	if m.EndTime != nil {
		fmt.Fprintf(&b, "⏱ %s\n", m.EndTime.Sub(m.StartTime).Round(time.Second))
	}

	if len(result.Skipped) > 0 {
		reasons := make([]string, 0, len(result.Skipped))
		for reason := range result.Skipped {
			reasons = append(reasons, reason)
		}
		sort.Strings(reasons)
		parts := make([]string, 0, len(reasons))
		for _, reason := range reasons {
			parts = append(parts, fmt.Sprintf("%s %d", html.EscapeString(reason), result.Skipped[reason]))
		}
		fmt.Fprintf(&b, "⏭ Skipped: %s\n", strings.Join(parts, ", "))
	}

	if len(result.Jobs) > 0 {
		b.WriteString("\n")
	}
	for i, job := range result.Jobs {
		if i == maxListedJobs {
			fmt.Fprintf(&b, "… and %d more\n", len(result.Jobs)-maxListedJobs)
			break
		}
		fmt.Fprintf(&b, "🔥 <a href=\"%s\">%s</a>", html.EscapeString(job.DetailURL()), html.EscapeString(job.Title))
		if job.Agency != "" {
			fmt.Fprintf(&b, " · %s", html.EscapeString(job.Agency))
		}
		if job.ClosingDate != "" {
			fmt.Fprintf(&b, " · closes %s", html.EscapeString(job.ClosingDate))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func FormatError(runID string, err error) string {
	return fmt.Sprintf("⚠️ <b>Spider run %s failed</b>:\n%s", html.EscapeString(shortID(runID)), html.EscapeString(err.Error()))
}

func shortID(runID string) string {
	if len(runID) > 8 {
		return runID[:8]
	}
	return runID
}
