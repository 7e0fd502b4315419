package models

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
)

func strPtr(s string) *string { return &s }

func TestCanTransition(t *testing.T) {
	allowed := map[[2]GiftStatus]bool{
		{GiftStatusPending, GiftStatusAccepted}:    true,
		{GiftStatusPending, GiftStatusScheduled}:   true,
		{GiftStatusPending, GiftStatusExpired}:     true,
		{GiftStatusAccepted, GiftStatusScheduled}:  true,
		{GiftStatusAccepted, GiftStatusCompleted}:  true,
		{GiftStatusScheduled, GiftStatusCompleted}: true,
	}
	all := []GiftStatus{
		GiftStatusPending, GiftStatusAccepted, GiftStatusScheduled, GiftStatusCompleted, GiftStatusExpired,
	}

	for _, from := range all {
		for _, to := range all {
			want := allowed[[2]GiftStatus{from, to}]
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestGiftStatus_Terminal(t *testing.T) {
	if !GiftStatusExpired.Terminal() || !GiftStatusCompleted.Terminal() {
		t.Error("expected expired and completed to be terminal")
	}
	if GiftStatusPending.Terminal() {
		t.Error("pending should not be terminal")
	}
	if GiftStatus("bogus").Valid() {
		t.Error("unexpected valid status")
	}
}

func TestTimeUnit_ToMinutes(t *testing.T) {
	tests := []struct {
		unit   TimeUnit
		amount int
		want   int
	}{
		{TimeUnitMinutes, 45, 45},
		{TimeUnitHours, 2, 120},
		{TimeUnitDays, 1, 1440},
	}
	for _, tt := range tests {
		got, err := tt.unit.ToMinutes(tt.amount)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != tt.want {
			t.Errorf("%s.ToMinutes(%d) = %d, want %d", tt.unit, tt.amount, got, tt.want)
		}
	}

	if _, err := TimeUnit("weeks").ToMinutes(1); !errors.Is(err, ErrInvalidTimeUnit) {
		t.Errorf("expected ErrInvalidTimeUnit, got %v", err)
	}
}

func TestTimeUnit_ToMinutesRejectsOverflow(t *testing.T) {
	tests := []struct {
		name   string
		unit   TimeUnit
		amount int
		want   int
		err    error
	}{
		{"one year of days", TimeUnitDays, 365, 525600, nil},
		{"one year of hours", TimeUnitHours, 8760, 525600, nil},
		{"one day past a year", TimeUnitDays, 366, 0, ErrTimeAmountTooLarge},
		{"wraps to one day", TimeUnitDays, 576460752303423489, 0, ErrTimeAmountTooLarge},
		{"wraps in hours", TimeUnitHours, math.MaxInt/60 + 1, 0, ErrTimeAmountTooLarge},
		{"huge minutes", TimeUnitMinutes, math.MaxInt, 0, ErrTimeAmountTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.unit.ToMinutes(tt.amount)
			if !errors.Is(err, tt.err) {
				t.Fatalf("expected error %v, got %v", tt.err, err)
			}
			if got != tt.want {
				t.Fatalf("expected %d minutes, got %d", tt.want, got)
			}
		})
	}
}

func TestJoinQueueParams_ValidateRejectsOverflow(t *testing.T) {
	p := JoinQueueParams{TimeAmount: 576460752303423489, TimeUnit: TimeUnitDays}
	p.Normalize()
	if err := p.Validate(); !errors.Is(err, ErrTimeAmountTooLarge) {
		t.Fatalf("expected ErrTimeAmountTooLarge, got %v", err)
	}
}

func validParams() CreateGiftParams {
	return CreateGiftParams{
		RecipientEmail: strPtr("  Friend@Example.com "),
		Message:        " coffee on me ",
		TimeAmount:     2,
		TimeUnit:       TimeUnitHours,
	}
}

func TestCreateGiftParams_NormalizeAndValidate(t *testing.T) {
	now := time.Now()
	p := validParams()
	p.Normalize()

	if p.Message != "coffee on me" {
		t.Errorf("expected trimmed message, got %q", p.Message)
	}
	if p.RecipientEmail == nil || *p.RecipientEmail != "friend@example.com" {
		t.Errorf("expected normalized email, got %v", p.RecipientEmail)
	}
	if p.PurposeType != PurposeAnything {
		t.Errorf("expected default purpose, got %q", p.PurposeType)
	}
	if err := p.Validate(now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreateGiftParams_ValidateErrors(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)

	tests := []struct {
		name   string
		mutate func(p *CreateGiftParams)
		want   error
	}{
		{"empty message", func(p *CreateGiftParams) { p.Message = "   " }, ErrMessageRequired},
		{"zero amount", func(p *CreateGiftParams) { p.TimeAmount = 0 }, ErrInvalidTimeAmount},
		{"bad unit", func(p *CreateGiftParams) { p.TimeUnit = "weeks" }, ErrInvalidTimeUnit},
		{"too large", func(p *CreateGiftParams) { p.TimeAmount = 400; p.TimeUnit = TimeUnitDays }, ErrTimeAmountTooLarge},
		{"wrapping amount", func(p *CreateGiftParams) { p.TimeAmount = 576460752303423489; p.TimeUnit = TimeUnitDays }, ErrTimeAmountTooLarge},
		{"bad purpose", func(p *CreateGiftParams) { p.PurposeType = "other" }, ErrInvalidPurposeType},
		{"specific without details", func(p *CreateGiftParams) { p.PurposeType = PurposeSpecific; p.PurposeDetails = strPtr(" ") }, ErrPurposeDetails},
		{"no recipient", func(p *CreateGiftParams) { p.RecipientEmail = nil }, ErrRecipientRequired},
		{"bad email", func(p *CreateGiftParams) { p.RecipientEmail = strPtr("not-an-email") }, ErrInvalidRecipient},
		{"expiry in past", func(p *CreateGiftParams) { p.ExpiryDate = &past }, ErrExpiryInPast},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validParams()
			tt.mutate(&p)
			p.Normalize()
			if err := p.Validate(now); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestGift_IsAddressedTo(t *testing.T) {
	userID := uuid.New()
	otherID := uuid.New()
	user := &User{ID: userID, Email: "friend@example.com", Phone: "+15551234"}

	tests := []struct {
		name string
		gift Gift
		want bool
	}{
		{"by id", Gift{RecipientID: &userID}, true},
		{"by email case-insensitive", Gift{RecipientEmail: strPtr("Friend@Example.com")}, true},
		{"by phone", Gift{RecipientPhone: strPtr("+15551234")}, true},
		{"someone else", Gift{RecipientEmail: strPtr("other@example.com")}, false},
		{"bound to another account", Gift{RecipientID: &otherID, RecipientEmail: strPtr("friend@example.com")}, false},
		{"bound to another account by phone", Gift{RecipientID: &otherID, RecipientPhone: strPtr("+15551234")}, false},
		{"bound to this account with stale email", Gift{RecipientID: &userID, RecipientEmail: strPtr("old@example.com")}, true},
	}
	for _, tt := range tests {
		if got := tt.gift.IsAddressedTo(user); got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}

	if (&Gift{RecipientEmail: strPtr("")}).IsAddressedTo(&User{ID: uuid.New()}) {
		t.Error("empty email must not match a user without email")
	}
	if (&Gift{RecipientID: &userID}).IsAddressedTo(nil) {
		t.Error("nil user must not match")
	}
}

func TestGift_PastExpiry(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour)
	g := Gift{ExpiryDate: &future}
	if g.PastExpiry(now) {
		t.Error("expected not past expiry")
	}
	if !g.PastExpiry(future) {
		t.Error("expected expiry at the deadline")
	}
	if (&Gift{}).PastExpiry(now) {
		t.Error("gift without expiry never expires")
	}
}

func TestJoinQueueParams_Validate(t *testing.T) {
	p := JoinQueueParams{TimeAmount: 30, TimeUnit: TimeUnitMinutes}
	p.Normalize()
	if err := p.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.PurposeType != PurposeAnything {
		t.Errorf("expected default purpose, got %q", p.PurposeType)
	}

	bad := JoinQueueParams{TimeAmount: -1, TimeUnit: TimeUnitMinutes}
	if err := bad.Validate(); !errors.Is(err, ErrInvalidTimeAmount) {
		t.Errorf("expected ErrInvalidTimeAmount, got %v", err)
	}
}

func TestUser_Name(t *testing.T) {
	var nilUser *User
	if nilUser.Name() != "Someone" {
		t.Error("expected fallback for nil user")
	}
	if (&User{Email: "a@b.c"}).Name() != "a@b.c" {
		t.Error("expected email fallback")
	}
	if (&User{DisplayName: "Ana", Email: "a@b.c"}).Name() != "Ana" {
		t.Error("expected display name")
	}
}
