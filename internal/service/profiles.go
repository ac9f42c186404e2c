package service

import (
	"context"
	"fmt"

	"github.com/boddenberg/bonos-bfa-go/internal/domain"
	"github.com/boddenberg/bonos-bfa-go/internal/infra/observability"
	"github.com/boddenberg/bonos-bfa-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var profileTracer = otel.Tracer("service/profiles")

// ProfileService reads and edits user profiles. Profiles are cached because
// every authenticated request resolves the caller's role through them.
type ProfileService struct {
	store   port.ProfileStore
	cache   port.Cache[*domain.Profile]
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewProfileService creates a profile service.
func NewProfileService(store port.ProfileStore, cache port.Cache[*domain.Profile], metrics *observability.Metrics, logger *zap.Logger) *ProfileService {
	return &ProfileService{store: store, cache: cache, metrics: metrics, logger: logger}
}

func profileCacheKey(userID string) string { return "profile:" + userID }

// Get returns the profile of userID.
func (s *ProfileService) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	ctx, span := profileTracer.Start(ctx, "ProfileService.Get")
	defer span.End()

	key := profileCacheKey(userID)
	if p, ok := s.cache.Get(key); ok {
		s.metrics.IncrCacheHit("profile")
		return p, nil
	}
	s.metrics.IncrCacheMiss("profile")

	p, err := s.store.GetProfileByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	s.cache.Set(key, p)
	return p, nil
}

// Update replaces the editable fields of the caller's profile.
func (s *ProfileService) Update(ctx context.Context, userID string, req *domain.UpdateProfileRequest) (*domain.Profile, error) {
	ctx, span := profileTracer.Start(ctx, "ProfileService.Update")
	defer span.End()

	if err := validateStruct(req); err != nil {
		return nil, err
	}

	changes := map[string]any{
		"first_name":   req.FirstName,
		"last_name":    req.LastName,
		"phone":        req.Phone,
		"address":      req.Address,
		"city":         req.City,
		"country":      req.Country,
		"ruc":          req.RUC,
		"company_name": req.CompanyName,
		"position":     req.Position,
		"website":      req.Website,
		"bio":          req.Bio,
		"avatar_url":   req.AvatarURL,
	}
	// birth_date is a date column; an empty string would be rejected
	if req.BirthDate != "" {
		changes["birth_date"] = req.BirthDate
	} else {
		changes["birth_date"] = nil
	}

	p, err := s.store.UpdateProfile(ctx, userID, changes)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	s.cache.Delete(profileCacheKey(userID))

	s.logger.Info("profile updated", zap.String("user_id", userID))
	return p, nil
}
