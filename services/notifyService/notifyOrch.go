package notifyService

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"parlayTracker/models"
	"parlayTracker/services/common"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Notifier announces slip events. Implementations must not block the caller for long.
type Notifier interface {
	SlipLocked(ctx context.Context, slip models.Slip) error
	SlipSettled(ctx context.Context, slip models.Slip) error
}

type NoopNotifier struct{}

func (NoopNotifier) SlipLocked(ctx context.Context, slip models.Slip) error  { return nil }
func (NoopNotifier) SlipSettled(ctx context.Context, slip models.Slip) error { return nil }

// SendTimeout caps a single webhook call.
const SendTimeout = 5 * time.Second

const (
	colorOpen = 0x3498db
	colorWin  = 0x2ecc71
	colorLoss = 0xe74c3c
)

// DiscordNotifier posts embeds to a channel webhook.
type DiscordNotifier struct {
	webhookID string
	token     string
	username  string
	currency  string
	execute   func(ctx context.Context, params *discordgo.WebhookParams) error
}

// NewDiscordNotifier builds a notifier from a https://discord.com/api/webhooks/{id}/{token} URL.
// Amounts are shown with currency, the peso sign when empty.
func NewDiscordNotifier(webhookURL string, currency string) (*DiscordNotifier, error) {
	id, token, err := ParseWebhookURL(webhookURL)
	if err != nil {
		return nil, err
	}

	session, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %v", err)
	}

	n := &DiscordNotifier{
		webhookID: id,
		token:     token,
		username:  "Parlay Tracker",
		currency:  currency,
	}
	n.execute = func(ctx context.Context, params *discordgo.WebhookParams) error {
		_, err := session.WebhookExecute(n.webhookID, n.token, false, params, discordgo.WithContext(ctx))
		return err
	}
	return n, nil
}

func ParseWebhookURL(raw string) (string, string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", "", fmt.Errorf("error parsing webhook url: %v", err)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+2 < len(parts); i++ {
		if parts[i] == "webhooks" && parts[i+1] != "" && parts[i+2] != "" {
			return parts[i+1], parts[i+2], nil
		}
	}
	return "", "", fmt.Errorf("webhook url %q is missing the id or token", raw)
}

func (n *DiscordNotifier) SlipLocked(ctx context.Context, slip models.Slip) error {
	return n.send(ctx, LockedEmbed(slip, n.currency))
}

func (n *DiscordNotifier) SlipSettled(ctx context.Context, slip models.Slip) error {
	return n.send(ctx, SettledEmbed(slip, n.currency))
}

// send posts one embed. The call ends with ctx or after SendTimeout, whichever is first.
func (n *DiscordNotifier) send(ctx context.Context, embed *discordgo.MessageEmbed) error {
	ctx, cancel := context.WithTimeout(ctx, SendTimeout)
	defer cancel()

	err := n.execute(ctx, &discordgo.WebhookParams{
		Username: n.username,
		Embeds:   []*discordgo.MessageEmbed{embed},
	})
	if err != nil {
		log.Printf("Error sending Discord notification: %v", err)
		return err
	}
	return nil
}

func LockedEmbed(slip models.Slip, currency string) *discordgo.MessageEmbed {
	var sb strings.Builder
	for _, pick := range slip.Picks {
		sb.WriteString(fmt.Sprintf("• **%s** (%s @ %s)", pick.Pick, pick.Visitor, pick.Home))
		if pick.Odds != nil {
			sb.WriteString(fmt.Sprintf(" %+d", *pick.Odds))
		}
		sb.WriteString("\n")
	}

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🔒 Parlay Locked (%d legs)", len(slip.Picks)),
		Description: sb.String(),
		Color:       colorOpen,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Stake", Value: common.FormatMoney(currency, slip.Amount), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: slip.ID},
	}
}

func SettledEmbed(slip models.Slip, currency string) *discordgo.MessageEmbed {
	title := "❌ Parlay Lost"
	color := colorLoss
	if slip.Status == models.SlipWin {
		title = "✅ Parlay Won"
		color = colorWin
	}

	return &discordgo.MessageEmbed{
		Title: title,
		Color: color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Stake", Value: common.FormatMoney(currency, slip.Amount), Inline: true},
			{Name: "Payout", Value: common.FormatMoney(currency, slip.ResultAmount), Inline: true},
			{Name: "Profit", Value: common.FormatMoney(currency, slip.Profit()), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: slip.ID},
	}
}
