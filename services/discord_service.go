package services

import (
	"fmt"
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"

	"pricelens/models"
)

// DiscordService posts calculator activity digests to a Discord channel.
// Without a token it stays disabled and every send is a no-op.
type DiscordService struct {
	session   *discordgo.Session
	channelID string
	botID     string
	enabled   bool
}

func NewDiscordService(token string, channelID string) (*DiscordService, error) {
	if token == "" {
		log.Println("Discord bot token not provided, Discord notifications disabled")
		return &DiscordService{enabled: false}, nil
	}

	if channelID == "" {
		log.Println("Discord channel ID not provided, Discord notifications disabled")
		return &DiscordService{enabled: false}, nil
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	user, err := session.User("@me")
	if err != nil {
		return nil, fmt.Errorf("failed to get bot user: %w", err)
	}

	svc := &DiscordService{
		session:   session,
		channelID: channelID,
		botID:     user.ID,
		enabled:   true,
	}

	session.AddHandler(svc.messageHandler)

	if err := session.Open(); err != nil {
		return nil, fmt.Errorf("failed to open Discord connection: %w", err)
	}

	log.Printf("Discord bot connected successfully! Bot ID: %s, Channel: %s", user.ID, channelID)

	return svc, nil
}

func (d *DiscordService) Close() {
	if d.enabled && d.session != nil {
		log.Println("Closing Discord bot connection...")
		d.session.Close()
	}
}

// SendDigest posts an analytics summary to the configured channel.
func (d *DiscordService) SendDigest(summary models.AnalyticsSummary) error {
	if !d.enabled {
		return nil
	}

	msg := fmt.Sprintf(
		"**Pricing Calculator Digest**\n"+
			"Calculations: %d\n"+
			"Checkout clicks: %d\n"+
			"Avg recommended price: $%.0f\n"+
			"Avg price change: %.0f%%",
		summary.TotalCalculations,
		summary.CheckoutClicks,
		summary.AvgRecommendedPrice,
		summary.AvgPriceChangePercent,
	)

	_, err := d.session.ChannelMessageSend(d.channelID, msg)
	return err
}

// messageHandler answers simple bot commands in the configured channel.
func (d *DiscordService) messageHandler(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author.ID == d.botID {
		return
	}

	if m.ChannelID != d.channelID {
		return
	}

	if strings.HasPrefix(m.Content, "!pricelens") {
		args := strings.Fields(m.Content)
		if len(args) < 2 {
			return
		}

		switch args[1] {
		case "ping":
			s.ChannelMessageSend(m.ChannelID, "Pong! Pricelens bot is online.")
		case "help":
			helpMsg := "**Pricelens Bot Commands:**\n" +
				"`!pricelens ping` - Check if bot is online\n" +
				"`!pricelens help` - Show this help message"
			s.ChannelMessageSend(m.ChannelID, helpMsg)
		}
	}
}
