package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

type GiftStatus string

const (
	GiftStatusPending   GiftStatus = "pending"
	GiftStatusAccepted  GiftStatus = "accepted"
	GiftStatusScheduled GiftStatus = "scheduled"
	GiftStatusCompleted GiftStatus = "completed"
	GiftStatusExpired   GiftStatus = "expired"
)

func (s GiftStatus) Valid() bool {
	switch s {
	case GiftStatusPending, GiftStatusAccepted, GiftStatusScheduled, GiftStatusCompleted, GiftStatusExpired:
		return true
	}
	return false
}

// Terminal reports whether no further transition can leave s.
func (s GiftStatus) Terminal() bool {
	return s == GiftStatusCompleted || s == GiftStatusExpired
}

// HasBeenAccepted reports whether a gift in status s carries an accepted_at.
func (s GiftStatus) HasBeenAccepted() bool {
	return s == GiftStatusAccepted || s == GiftStatusScheduled || s == GiftStatusCompleted
}

var giftTransitions = map[GiftStatus][]GiftStatus{
	GiftStatusPending:   {GiftStatusAccepted, GiftStatusScheduled, GiftStatusExpired},
	GiftStatusAccepted:  {GiftStatusScheduled, GiftStatusCompleted},
	GiftStatusScheduled: {GiftStatusCompleted},
}

// CanTransition reports whether a gift may move from one status to another.
// Transitions only move forward; nothing re-enters pending.
func CanTransition(from, to GiftStatus) bool {
	for _, next := range giftTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type TimeUnit string

const (
	TimeUnitMinutes TimeUnit = "minutes"
	TimeUnitHours   TimeUnit = "hours"
	TimeUnitDays    TimeUnit = "days"
)

func (u TimeUnit) Valid() bool {
	return u == TimeUnitMinutes || u == TimeUnitHours || u == TimeUnitDays
}

func (u TimeUnit) minutesPer() (int, error) {
	switch u {
	case TimeUnitMinutes:
		return 1, nil
	case TimeUnitHours:
		return 60, nil
	case TimeUnitDays:
		return 60 * 24, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeUnit, u)
	}
}

// ToMinutes converts amount expressed in u to minutes. Amounts beyond one
// year are rejected before multiplying so the result cannot wrap.
func (u TimeUnit) ToMinutes(amount int) (int, error) {
	per, err := u.minutesPer()
	if err != nil {
		return 0, err
	}
	if amount > maxGiftMinutes/per || amount < -maxGiftMinutes/per {
		return 0, ErrTimeAmountTooLarge
	}
	return amount * per, nil
}

type PurposeType string

const (
	PurposeAnything PurposeType = "anything"
	PurposeSpecific PurposeType = "specific"
)

func (p PurposeType) Valid() bool {
	return p == PurposeAnything || p == PurposeSpecific
}

// maxGiftMinutes bounds a single gift at one year.
const maxGiftMinutes = 365 * 24 * 60

var (
	ErrMessageRequired    = errors.New("message is required")
	ErrInvalidTimeAmount  = errors.New("time amount must be greater than zero")
	ErrTimeAmountTooLarge = errors.New("time amount exceeds one year")
	ErrInvalidTimeUnit    = errors.New("invalid time unit")
	ErrInvalidPurposeType = errors.New("invalid purpose type")
	ErrPurposeDetails     = errors.New("purpose details are required for a specific purpose")
	ErrRecipientRequired  = errors.New("a recipient id, email or phone is required")
	ErrInvalidRecipient   = errors.New("invalid recipient email")
	ErrUnknownRecipient   = errors.New("recipient account does not exist")
	ErrExpiryInPast       = errors.New("expiry date must be in the future")
	ErrCannotGiftSelf     = errors.New("cannot send a gift to yourself")
)

type Gift struct {
	ID                 uuid.UUID       `json:"id"`
	SenderID           uuid.UUID       `json:"sender_id"`
	RecipientID        *uuid.UUID      `json:"recipient_id,omitempty"`
	RecipientEmail     *string         `json:"recipient_email,omitempty"`
	RecipientPhone     *string         `json:"recipient_phone,omitempty"`
	Message            string          `json:"message"`
	OriginalTimeAmount int             `json:"original_time_amount"`
	TimeAmount         int             `json:"time_amount"`
	TimeUnit           TimeUnit        `json:"time_unit"`
	PurposeType        PurposeType     `json:"purpose_type"`
	PurposeDetails     *string         `json:"purpose_details,omitempty"`
	AvailabilityData   json.RawMessage `json:"availability_data,omitempty"`
	Status             GiftStatus      `json:"status"`
	IsRandomExchange   bool            `json:"is_random_exchange"`
	ScheduledDateTime  *time.Time      `json:"scheduled_datetime,omitempty"`
	ExpiryDate         *time.Time      `json:"expiry_date,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
	AcceptedAt         *time.Time      `json:"accepted_at,omitempty"`
	CompletedAt        *time.Time      `json:"completed_at,omitempty"`
}

// IsAddressedTo reports whether user is the gift's recipient. Once a gift is
// bound to an account only that account matches; until then the email or
// phone the sender addressed it to decides.
func (g *Gift) IsAddressedTo(user *User) bool {
	if user == nil {
		return false
	}
	if g.RecipientID != nil {
		return *g.RecipientID == user.ID
	}
	if g.RecipientEmail != nil && user.Email != "" && strings.EqualFold(*g.RecipientEmail, user.Email) {
		return true
	}
	if g.RecipientPhone != nil && user.Phone != "" && *g.RecipientPhone == user.Phone {
		return true
	}
	return false
}

// PastExpiry reports whether the user-supplied hard deadline has passed.
func (g *Gift) PastExpiry(now time.Time) bool {
	return g.ExpiryDate != nil && !now.Before(*g.ExpiryDate)
}

type CreateGiftParams struct {
	RecipientID      *uuid.UUID
	RecipientEmail   *string
	RecipientPhone   *string
	Message          string
	TimeAmount       int
	TimeUnit         TimeUnit
	PurposeType      PurposeType
	PurposeDetails   *string
	AvailabilityData json.RawMessage
	ExpiryDate       *time.Time
}

// Normalize trims string inputs and drops empty optional fields.
func (p *CreateGiftParams) Normalize() {
	p.Message = strings.TrimSpace(p.Message)
	p.RecipientEmail = trimOptional(p.RecipientEmail, strings.ToLower)
	p.RecipientPhone = trimOptional(p.RecipientPhone, nil)
	p.PurposeDetails = trimOptional(p.PurposeDetails, nil)
	if p.PurposeType == "" {
		p.PurposeType = PurposeAnything
	}
}

// Validate checks a normalized request against now.
func (p *CreateGiftParams) Validate(now time.Time) error {
	if p.Message == "" {
		return ErrMessageRequired
	}
	if err := validateAmount(p.TimeAmount, p.TimeUnit); err != nil {
		return err
	}
	if err := validatePurpose(p.PurposeType, p.PurposeDetails); err != nil {
		return err
	}
	if p.RecipientID == nil && p.RecipientEmail == nil && p.RecipientPhone == nil {
		return ErrRecipientRequired
	}
	if p.RecipientEmail != nil {
		if _, err := mail.ParseAddress(*p.RecipientEmail); err != nil {
			return ErrInvalidRecipient
		}
	}
	if p.ExpiryDate != nil && !p.ExpiryDate.After(now) {
		return ErrExpiryInPast
	}
	return nil
}

func validateAmount(amount int, unit TimeUnit) error {
	if amount <= 0 {
		return ErrInvalidTimeAmount
	}
	_, err := unit.ToMinutes(amount)
	return err
}

func validatePurpose(purpose PurposeType, details *string) error {
	if !purpose.Valid() {
		return ErrInvalidPurposeType
	}
	if purpose == PurposeSpecific && (details == nil || *details == "") {
		return ErrPurposeDetails
	}
	return nil
}

func trimOptional(s *string, transform func(string) string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	if transform != nil {
		v = transform(v)
	}
	return &v
}

// GiftBox selects which side of a user's gifts to list.
type GiftBox string

const (
	GiftBoxSent     GiftBox = "sent"
	GiftBoxReceived GiftBox = "received"
)
