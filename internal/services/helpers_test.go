package services

import (
	"bytes"
	"io"

	"github.com/HammerMeetNail/timegift/internal/logging"
	"github.com/HammerMeetNail/timegift/internal/models"
)

func quietLogger() *logging.Logger {
	return logging.New().SetOutput(io.Discard)
}

func capturingLogger() (*logging.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return logging.New().SetOutput(&buf), &buf
}

// giftValues lists g's columns in giftColumns order.
func giftValues(g *models.Gift) []any {
	return []any{
		g.ID, g.SenderID, g.RecipientID, g.RecipientEmail, g.RecipientPhone, g.Message,
		g.OriginalTimeAmount, g.TimeAmount, string(g.TimeUnit), string(g.PurposeType), g.PurposeDetails,
		[]byte(g.AvailabilityData), string(g.Status), g.IsRandomExchange, g.ScheduledDateTime, g.ExpiryDate,
		g.CreatedAt, g.UpdatedAt, g.AcceptedAt, g.CompletedAt,
	}
}

func strPtr(s string) *string { return &s }
