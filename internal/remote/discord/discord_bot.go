package discord

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/grimleaf/grimleaf/internal/bot"
	"github.com/grimleaf/grimleaf/internal/config"
)

type Bot struct {
	discordSession *discordgo.Session
	channelID      string
	stats          *bot.Stats
	stop           func()
	useWebhook     bool
	webhookClient  *webhookClient
}

// NewBot builds the Discord notifier. In webhook mode it only pushes
// messages; in session mode it also answers admin commands. stop is
// invoked by the !stop command and must be safe to call repeatedly.
func NewBot(token, channelID string, stats *bot.Stats, stop func(), useWebhook bool, webhookURL string) (*Bot, error) {
	botInstance := &Bot{
		channelID:     channelID,
		stats:         stats,
		stop:          stop,
		useWebhook:    useWebhook,
		webhookClient: nil,
	}

	if useWebhook {
		if webhookURL == "" {
			return nil, fmt.Errorf("webhook URL is required when using webhook mode")
		}
		botInstance.webhookClient = newWebhookClient(webhookURL)
		return botInstance, nil
	}

	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}

	botInstance.discordSession = dg

	return botInstance, nil
}

func (b *Bot) Start(ctx context.Context) error {
	if b.useWebhook {
		<-ctx.Done()
		return nil
	}

	b.discordSession.AddHandler(b.onMessageCreated)
	// MESSAGE_CONTENT intent is required to read message content.
	b.discordSession.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentMessageContent
	err := b.discordSession.Open()
	if err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}

	<-ctx.Done()

	return b.discordSession.Close()
}

func (b *Bot) onMessageCreated(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author.ID == s.State.User.ID {
		return
	}

	if !slices.Contains(config.Grimleaf.Discord.BotAdmins, m.Author.ID) {
		return
	}

	if !strings.HasPrefix(m.Content, "!") {
		return
	}

	prefix := strings.Split(m.Content, " ")[0]
	switch prefix {
	case "!status":
		b.handleStatusRequest(s, m)
	case "!stop":
		b.handleStopRequest(s, m)
	case "!help":
		b.handleHelpRequest(s, m)
	default:
		s.ChannelMessageSend(m.ChannelID, fmt.Sprintf("Unknown command: `%s`. Type `!help` for available commands.", prefix))
	}
}

func (b *Bot) handleStatusRequest(s *discordgo.Session, m *discordgo.MessageCreate) {
	s.ChannelMessageSend(m.ChannelID, formatStatus(b.stats.Snapshot()))
}

func (b *Bot) handleStopRequest(s *discordgo.Session, m *discordgo.MessageCreate) {
	b.stop()
	s.ChannelMessageSend(m.ChannelID, "Stopping the session.")
}

func (b *Bot) handleHelpRequest(s *discordgo.Session, m *discordgo.MessageCreate) {
	help := "Available commands:\n" +
		"`!status` - current session state and counters\n" +
		"`!stop` - stop the session gracefully\n" +
		"`!help` - this message"
	s.ChannelMessageSend(m.ChannelID, help)
}

func formatStatus(snap bot.Snapshot) string {
	return fmt.Sprintf(
		"**[%s]** %s\nItems: %d (%.0f/h)\nBank trips: %d, cycles: %d\nBreaks: %d, misclicks: %d, recoveries: %d\nUptime: %.0f min, fatigue: %.2f",
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
