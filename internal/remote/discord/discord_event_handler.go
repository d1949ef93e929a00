package discord

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"

	"github.com/bwmarrin/discordgo"

	"github.com/grimleaf/grimleaf/internal/config"
	"github.com/grimleaf/grimleaf/internal/event"
)

func (b *Bot) Handle(ctx context.Context, e event.Event) error {
	if !b.shouldPublish(e) {
		return nil
	}

	switch evt := e.(type) {
	case event.SessionStartedEvent:
		message := fmt.Sprintf("**[%s]** %s", evt.Session(), evt.Message())
		return b.sendEventMessage(ctx, message)
	case event.SessionFinishedEvent:
		// Error finishes carry the failing frame; let those take the
		// screenshot path below.
		if e.Screenshot() != nil {
			break
		}
		message := fmt.Sprintf("**[%s]** %s (%s)", evt.Session(), evt.Message(), evt.Reason)
		return b.sendEventMessage(ctx, message)
	case event.BreakStartedEvent:
		message := fmt.Sprintf("**[%s]** taking a %s break for %s", evt.Session(), evt.Kind, evt.Duration.Round(0))
		return b.sendEventMessage(ctx, message)
	case event.BreakFinishedEvent:
		message := fmt.Sprintf("**[%s]** back from %s break", evt.Session(), evt.Kind)
		return b.sendEventMessage(ctx, message)
	case event.CycleCompletedEvent:
		message := fmt.Sprintf("**[%s]** cycle %d done: %d items in %s", evt.Session(), evt.Cycle, evt.Processed, evt.Elapsed.Round(0))
		return b.sendEventMessage(ctx, message)
	case event.CaptureStalledEvent:
		message := fmt.Sprintf("**[%s]** %s", evt.Session(), evt.Message())
		return b.sendEventMessage(ctx, message)
	default:
		break
	}

	if e.Screenshot() == nil {
		return nil
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, e.Screenshot(), &jpeg.Options{Quality: 80}); err != nil {
		return err
	}

	message := fmt.Sprintf("**[%s]** %s", e.Session(), e.Message())
	return b.sendScreenshot(ctx, message, buf.Bytes())
}

func (b *Bot) sendEventMessage(ctx context.Context, message string) error {
	if b.useWebhook {
		return b.webhookClient.Send(ctx, message, "", nil)
	}

	_, err := b.discordSession.ChannelMessageSend(b.channelID, message)
	return err
}

func (b *Bot) sendScreenshot(ctx context.Context, message string, image []byte) error {
	if b.useWebhook {
		return b.webhookClient.Send(ctx, message, "Screenshot.jpeg", image)
	}

	reader := bytes.NewReader(image)
	_, err := b.discordSession.ChannelMessageSendComplex(b.channelID, &discordgo.MessageSend{
		Files:   []*discordgo.File{{Name: "Screenshot.jpeg", ContentType: "image/jpeg", Reader: reader}},
		Content: message,
	})
	return err
}

func (b *Bot) shouldPublish(e event.Event) bool {
	switch evt := e.(type) {
	case event.SessionStartedEvent:
		return true
	case event.SessionFinishedEvent:
		if evt.Reason == event.FinishedError {
			return config.Grimleaf.Discord.EnableErrorMessages
		}
		return true
	case event.BreakStartedEvent, event.BreakFinishedEvent:
		return config.Grimleaf.Discord.EnableBreakMessages
	case event.CycleCompletedEvent:
		return config.Grimleaf.Discord.EnableCycleMessages
	case event.CaptureStalledEvent:
		return config.Grimleaf.Discord.EnableErrorMessages
	case event.RecoveryAttemptedEvent:
		return false
	case event.StateChangedEvent:
		return false
	default:
		break
	}

	return e.Screenshot() != nil
}
