package supabase

import (
	"context"
	"time"

	"github.com/boddenberg/bonos-bfa-go/internal/domain"
	"github.com/boddenberg/bonos-bfa-go/internal/infra/resilience"
)

// ============================================================
// Profiles (implements port.ProfileStore)
// ============================================================

func (c *Client) GetProfileByUserID(ctx context.Context, userID string) (*domain.Profile, error) {
	var rows []domain.Profile
	err := c.call(ctx, "GetProfileByUserID", "profiles", func(ctx context.Context) error {
		rows = nil
		q := From("profiles").Select("*").Eq("user_id", userID).Limit(1)
		if _, err := c.selectRows(ctx, q, false, &rows); err != nil {
			return err
		}
		if len(rows) == 0 {
			return resilience.Permanent(&domain.ErrNotFound{Resource: "profile", ID: userID})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rows[0], nil
}

func (c *Client) UpdateProfile(ctx context.Context, userID string, changes map[string]any) (*domain.Profile, error) {
	body := make(map[string]any, len(changes)+1)
	for k, v := range changes {
		body[k] = v
	}
	body["updated_at"] = time.Now().UTC().Format(time.RFC3339)

	var rows []domain.Profile
	err := c.call(ctx, "UpdateProfile", "profiles", func(ctx context.Context) error {
		rows = nil
		if err := c.update(ctx, From("profiles").Eq("user_id", userID), body, &rows); err != nil {
			return err
		}
		if len(rows) == 0 {
			return resilience.Permanent(&domain.ErrNotFound{Resource: "profile", ID: userID})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rows[0], nil
}
