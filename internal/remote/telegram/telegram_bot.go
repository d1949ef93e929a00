package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/grimleaf/grimleaf/internal/bot"
)

type Bot struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	stats  *bot.Stats
	stop   func()
	logger *slog.Logger
}

// Start polls for chat commands until ctx is cancelled. Only messages
// from the configured chat are honored.
func (b *Bot) Start(ctx context.Context) error {
	offset, err := b.getLatestOffset()
	if err != nil {
		return err
	}

	u := tgbotapi.NewUpdate(offset)
	u.Timeout = 5
	updates := b.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.bot.StopReceivingUpdates()
			for range updates {
			}
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || update.Message.Chat == nil || update.Message.Chat.ID != b.chatID {
				continue
			}
			switch strings.ToLower(strings.TrimSpace(update.Message.Text)) {
			case "status", "/status":
				b.send(formatStatus(b.stats.Snapshot()))
			case "stop", "/stop":
				b.stop()
				b.send("Stopping the session.")
			}
		}
	}
}

func (b *Bot) send(text string) {
	if _, err := b.bot.Send(tgbotapi.NewMessage(b.chatID, text)); err != nil {
		b.logger.Error("error sending telegram message", slog.Any("error", err))
	}
}

func (b *Bot) getLatestOffset() (int, error) {
	upds, err := b.bot.GetUpdates(tgbotapi.NewUpdate(-1))
	if err != nil {
		return 0, err
	}
	offset := 0
	if len(upds) > 0 {
		offset = upds[0].UpdateID + 1
	}
	return offset, nil
}

func formatStatus(snap bot.Snapshot) string {
	return fmt.Sprintf(
		"[%s] %s\nItems: %d (%.0f/h)\nBank trips: %d, cycles: %d\nBreaks: %d, misclicks: %d, recoveries: %d\nUptime: %.0f min, fatigue: %.2f",
		snap.Profile,
		snap.State,
		snap.ItemsProcessed,
		snap.ItemsPerHour,
		snap.BankTrips,
		snap.Cycles,
		snap.Breaks,
		snap.Misclicks,
		snap.Recoveries,
		snap.UptimeSeconds/60,
		snap.Fatigue.FatigueLevel,
	)
}
