package telegram

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/grimleaf/grimleaf/internal/event"
)

// Handle pushes bus events to the configured chat. Telegram gets the
// session lifecycle and anomalies; per-cycle chatter stays out.
func (b *Bot) Handle(ctx context.Context, e event.Event) error {
	switch evt := e.(type) {
	case event.SessionStartedEvent:
		b.send(fmt.Sprintf("[%s] %s", evt.Session(), evt.Message()))
		return nil
	case event.SessionFinishedEvent:
		if e.Screenshot() == nil {
			b.send(fmt.Sprintf("[%s] %s (%s)", evt.Session(), evt.Message(), evt.Reason))
			return nil
		}
	case event.BreakStartedEvent:
		b.send(fmt.Sprintf("[%s] taking a %s break for %s", evt.Session(), evt.Kind, evt.Duration.Round(0)))
		return nil
	case event.CaptureStalledEvent:
		b.send(fmt.Sprintf("[%s] %s", evt.Session(), evt.Message()))
		return nil
	default:
		if e.Screenshot() == nil {
			return nil
		}
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, e.Screenshot(), &jpeg.Options{Quality: 80}); err != nil {
		return err
	}

	photo := tgbotapi.NewPhoto(b.chatID, tgbotapi.FileBytes{
		Name:  "Screenshot.jpeg",
		Bytes: buf.Bytes(),
	})
	photo.Caption = fmt.Sprintf("[%s] %s", e.Session(), e.Message())
	if _, err := b.bot.Send(photo); err != nil {
		return fmt.Errorf("error sending telegram screenshot: %w", err)
	}
	return nil
}
