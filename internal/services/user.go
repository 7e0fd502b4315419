package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/HammerMeetNail/timegift/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

// UserService keeps the local profile mirror in step with the identities the
// auth provider vouches for.
type UserService struct {
	db DB
}

func NewUserService(db DB) *UserService {
	return &UserService{db: db}
}

func nullableString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Sync upserts the profile for an authenticated identity. Empty claims never
// erase stored contact details.
func (s *UserService) Sync(ctx context.Context, user models.User) (*models.User, error) {
	email := nullableString(strings.ToLower(user.Email))
	phone := nullableString(user.Phone)
	name := nullableString(user.DisplayName)

	var out models.User
	var gotEmail, gotPhone, gotName *string
	err := s.db.QueryRow(ctx,
		`INSERT INTO users (id, email, phone, display_name)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE
		 SET email = COALESCE(EXCLUDED.email, users.email),
		     phone = COALESCE(EXCLUDED.phone, users.phone),
		     display_name = COALESCE(EXCLUDED.display_name, users.display_name)
		 RETURNING id, email, phone, display_name, created_at`,
		user.ID, email, phone, name,
	).Scan(&out.ID, &gotEmail, &gotPhone, &gotName, &out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("syncing user profile: %w", err)
	}
	fillContact(&out, gotEmail, gotPhone, gotName)
	return &out, nil
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.getOne(ctx,
		`SELECT id, email, phone, display_name, created_at FROM users WHERE id = $1`,
		id,
	)
}

// FindByContact resolves a recipient by email first, then by phone.
func (s *UserService) FindByContact(ctx context.Context, email, phone *string) (*models.User, error) {
	if email != nil && *email != "" {
		user, err := s.getOne(ctx,
			`SELECT id, email, phone, display_name, created_at FROM users WHERE LOWER(email) = LOWER($1)`,
			*email,
		)
		if err == nil || !errors.Is(err, ErrUserNotFound) {
			return user, err
		}
	}
	if phone != nil && *phone != "" {
		return s.getOne(ctx,
			`SELECT id, email, phone, display_name, created_at FROM users WHERE phone = $1`,
			*phone,
		)
	}
	return nil, ErrUserNotFound
}

func (s *UserService) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var out models.User
	var email, phone, name *string
	err := s.db.QueryRow(ctx, query, arg).Scan(&out.ID, &email, &phone, &name, &out.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	fillContact(&out, email, phone, name)
	return &out, nil
}

func fillContact(u *models.User, email, phone, name *string) {
	if email != nil {
		u.Email = *email
	}
	if phone != nil {
		u.Phone = *phone
	}
	if name != nil {
		u.DisplayName = *name
	}
}
