package models

import (
	"time"

	"github.com/google/uuid"
)

// RandomExchangeMessage is the message carried by every gift created by the
// matching job.
const RandomExchangeMessage = "A random act of kindness - sharing my time with you! 🎁"

// ExchangeSettings is the typed form of the "random_exchange" admin setting.
type ExchangeSettings struct {
	Enabled bool `json:"enabled"`
	// MatchSimilarTime is stored and surfaced to admins but the FIFO pairer
	// does not consult it.
	MatchSimilarTime bool `json:"match_similar_time"`
}

func DefaultExchangeSettings() ExchangeSettings {
	return ExchangeSettings{Enabled: true, MatchSimilarTime: true}
}

type QueueEntry struct {
	ID             uuid.UUID   `json:"id"`
	UserID         uuid.UUID   `json:"user_id"`
	TimeAmount     int         `json:"time_amount"`
	TimeUnit       TimeUnit    `json:"time_unit"`
	PurposeType    PurposeType `json:"purpose_type"`
	PurposeDetails *string     `json:"purpose_details,omitempty"`
	Matched        bool        `json:"matched"`
	MatchedWith    *uuid.UUID  `json:"matched_with,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

type JoinQueueParams struct {
	TimeAmount     int
	TimeUnit       TimeUnit
	PurposeType    PurposeType
	PurposeDetails *string
}

// Normalize fills defaults and trims optional text.
func (p *JoinQueueParams) Normalize() {
	p.PurposeDetails = trimOptional(p.PurposeDetails, nil)
	if p.PurposeType == "" {
		p.PurposeType = PurposeAnything
	}
}

func (p *JoinQueueParams) Validate() error {
	if err := validateAmount(p.TimeAmount, p.TimeUnit); err != nil {
		return err
	}
	return validatePurpose(p.PurposeType, p.PurposeDetails)
}

// MatchResult summarizes one run of the matching job.
type MatchResult struct {
	Enabled          bool `json:"-"`
	QueueSize        int  `json:"queue_size"`
	MatchedPairs     int  `json:"matched_pairs"`
	RemainingInQueue int  `json:"remaining_in_queue"`
	// Skipped counts pairs abandoned because another run claimed an entry.
	Skipped int `json:"skipped"`
}

// Pair is two queue entries that exchange gifts with each other.
type Pair struct {
	A QueueEntry
	B QueueEntry
}
