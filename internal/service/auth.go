package service

import (
	"context"
	"errors"

	"github.com/boddenberg/bonos-bfa-go/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var authTracer = otel.Tracer("service/auth")

// supabaseAudience is the aud claim of tokens issued to signed-in users.
const supabaseAudience = "authenticated"

// SupabaseClaims are the claims of a Supabase Auth access token.
type SupabaseClaims struct {
	Email        string         `json:"email"`
	Role         string         `json:"role"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
	jwt.RegisteredClaims
}

// AuthService authenticates requests carrying Supabase access tokens.
// Sign-up, sign-in and refresh happen against Supabase Auth directly.
type AuthService struct {
	jwtSecret []byte
	profiles  *ProfileService
	logger    *zap.Logger
}

// NewAuthService creates an auth service verifying HS256 tokens with secret.
func NewAuthService(jwtSecret string, profiles *ProfileService, logger *zap.Logger) *AuthService {
	return &AuthService{jwtSecret: []byte(jwtSecret), profiles: profiles, logger: logger}
}

// ValidateAccessToken checks signature, expiry and audience.
func (s *AuthService) ValidateAccessToken(tokenString string) (*SupabaseClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SupabaseClaims{}, func(t *jwt.Token) (any, error) {
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(supabaseAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, &domain.ErrUnauthorized{Message: "Token inválido o expirado"}
	}

	claims, ok := token.Claims.(*SupabaseClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, &domain.ErrUnauthorized{Message: "Token inválido"}
	}
	return claims, nil
}

// Authenticate resolves the caller of a request: the token subject plus the
// marketplace role from the caller's profile. Users without a profile fall
// back to the role chosen at sign-up (user_metadata.rol).
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*domain.Caller, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Authenticate")
	defer span.End()

	claims, err := s.ValidateAccessToken(tokenString)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("user.id", claims.Subject))

	caller := &domain.Caller{UserID: claims.Subject, Email: claims.Email}

	p, err := s.profiles.Get(ctx, claims.Subject)
	var nf *domain.ErrNotFound
	switch {
	case err == nil:
		caller.Role = p.Role
	case errors.As(err, &nf):
		caller.Role = metadataRole(claims.UserMetadata)
		if caller.Role == "" {
			return nil, &domain.ErrUnauthorized{Message: "Perfil no encontrado"}
		}
		s.logger.Warn("auth: profile missing, using sign-up role",
			zap.String("user_id", claims.Subject),
			zap.String("role", string(caller.Role)),
		)
	default:
		return nil, err
	}
	return caller, nil
}

func metadataRole(md map[string]any) domain.Role {
	for _, k := range []string{"rol", "role"} {
		if v, ok := md[k].(string); ok {
			switch r := domain.Role(v); r {
			case domain.RoleInvestor, domain.RoleIssuer:
				return r
			}
		}
	}
	return ""
}
