package notifyService

import (
	"context"
	"errors"
	"parlayTracker/models"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/shopspring/decimal"
)

func TestParseWebhookURL(t *testing.T) {
	tests := []struct {
		name          string
		raw           string
		expectedID    string
		expectedToken string
		expectErr     bool
	}{
		{name: "discord url", raw: "https://discord.com/api/webhooks/123456/abc-DEF", expectedID: "123456", expectedToken: "abc-DEF"},
		{name: "versioned url", raw: "https://discord.com/api/v10/webhooks/42/tok/", expectedID: "42", expectedToken: "tok"},
		{name: "missing token", raw: "https://discord.com/api/webhooks/42", expectErr: true},
		{name: "not a webhook", raw: "https://example.com/hooks", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, token, err := ParseWebhookURL(tt.raw)
			if tt.expectErr {
				if err == nil {
					t.Errorf("Expected error for %s", tt.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if id != tt.expectedID || token != tt.expectedToken {
				t.Errorf("Expected %s/%s, got %s/%s", tt.expectedID, tt.expectedToken, id, token)
			}
		})
	}
}

func TestEmbeds(t *testing.T) {
	odds := -110
	slip := models.Slip{
		ID: "5b0c9f6e-4a1f-4a53-9c1b-2f1f2b7f8a10",
		Picks: []models.Pick{
			{GameID: 1, Pick: "Boston Celtics", Home: "Boston Celtics", Visitor: "Washington Wizards"},
			{GameID: 2, Pick: "Dallas Mavericks", Home: "Denver Nuggets", Visitor: "Dallas Mavericks", Odds: &odds},
		},
		Amount: decimal.NewFromInt(10),
		Status: models.SlipOpen,
	}

	locked := LockedEmbed(slip, "")
	if !strings.Contains(locked.Title, "2 legs") {
		t.Errorf("Unexpected title %q", locked.Title)
	}
	if !strings.Contains(locked.Description, "-110") {
		t.Errorf("Expected odds in description, got %q", locked.Description)
	}
	if locked.Fields[0].Value != "₱10.00" {
		t.Errorf("Expected stake ₱10.00, got %s", locked.Fields[0].Value)
	}

	slip.Status = models.SlipWin
	slip.ResultAmount = decimal.NewFromInt(25)
	won := SettledEmbed(slip, "")
	if won.Color != colorWin {
		t.Errorf("Expected win color")
	}
	if won.Fields[2].Value != "₱15.00" {
		t.Errorf("Expected profit ₱15.00, got %s", won.Fields[2].Value)
	}

	slip.Status = models.SlipLoss
	slip.ResultAmount = decimal.Zero
	lost := SettledEmbed(slip, "$")
	if lost.Fields[2].Value != "-$10.00" {
		t.Errorf("Expected profit -$10.00, got %s", lost.Fields[2].Value)
	}
}

func TestDiscordNotifier(t *testing.T) {
	n, err := NewDiscordNotifier("https://discord.com/api/webhooks/123/tok", "")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var sent []*discordgo.WebhookParams
	n.execute = func(ctx context.Context, params *discordgo.WebhookParams) error {
		sent = append(sent, params)
		return nil
	}

	slip := models.Slip{ID: "x", Amount: decimal.NewFromInt(5), Status: models.SlipLoss}
	if err := n.SlipSettled(context.Background(), slip); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(sent) != 1 || len(sent[0].Embeds) != 1 {
		t.Fatalf("Expected one embed to be sent")
	}
	if sent[0].Username != "Parlay Tracker" {
		t.Errorf("Unexpected username %q", sent[0].Username)
	}

	n.execute = func(ctx context.Context, params *discordgo.WebhookParams) error { return errors.New("rate limited") }
	if err := n.SlipLocked(context.Background(), slip); err == nil {
		t.Error("Expected error to be returned")
	}
}

func TestDiscordNotifier_BoundedByContext(t *testing.T) {
	n, err := NewDiscordNotifier("https://discord.com/api/webhooks/123/tok", "")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	n.execute = func(ctx context.Context, params *discordgo.WebhookParams) error {
		if _, ok := ctx.Deadline(); !ok {
			t.Error("Expected a deadline on the webhook call")
		}
		<-ctx.Done()
		return ctx.Err()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err = n.SlipLocked(ctx, models.Slip{ID: "x", Amount: decimal.NewFromInt(5), Status: models.SlipOpen})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Expected the call to end with the request, took %v", elapsed)
	}
}

func TestNoopNotifier(t *testing.T) {
	var n Notifier = NoopNotifier{}
	if err := n.SlipLocked(context.Background(), models.Slip{}); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}
