package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/konnected/identity/pkg/errx"
	"github.com/konnected/identity/pkg/kernel"
)

const (
	accessAudience  = "konnected-api"
	refreshAudience = "konnected-refresh"
)

// JWTService implements TokenService over HS256 signed tokens. Access and
// refresh tokens carry the same claim set but are signed with distinct
// secrets and audiences, so one kind can never pass as the other.
type JWTService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
}

var _ TokenService = (*JWTService)(nil)

type jwtClaims struct {
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
	TenantID string   `json:"tenant_id"`
	jwt.RegisteredClaims
}

func NewJWTService(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration, issuer string) *JWTService {
	return &JWTService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		issuer:        issuer,
	}
}

// AccessTTL returns the configured access token lifetime.
func (s *JWTService) AccessTTL() time.Duration { return s.accessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (s *JWTService) RefreshTTL() time.Duration { return s.refreshTTL }

// ===== Generation =====

func (s *JWTService) GenerateAccessToken(claims Claims) (string, error) {
	return s.generate(claims, s.accessSecret, accessAudience, s.accessTTL)
}

func (s *JWTService) GenerateRefreshToken(claims Claims) (string, error) {
	return s.generate(claims, s.refreshSecret, refreshAudience, s.refreshTTL)
}

func (s *JWTService) generate(claims Claims, secret []byte, audience string, ttl time.Duration) (string, error) {
	if !claims.Validate() {
		return "", ErrTokenGenerationFailed().WithCause(errx.New("incomplete claims", errx.TypeInternal))
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims{
		Email:    claims.Email,
		Roles:    claims.Roles,
		TenantID: claims.TenantID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			// Unique per token so back-to-back issuance never collides.
			ID:        uuid.NewString(),
			Subject:   claims.UserID.String(),
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})

	signed, err := token.SignedString(secret)
	if err != nil {
		return "", ErrTokenGenerationFailed().WithCause(err)
	}
	return signed, nil
}

// ===== Validation =====

func (s *JWTService) ValidateAccessToken(token string) (*Claims, error) {
	claims, err := s.validate(token, s.accessSecret, accessAudience)
	if err != nil {
		return nil, ErrInvalidAccessToken().WithCause(err)
	}
	return claims, nil
}

func (s *JWTService) ValidateRefreshToken(token string) (*Claims, error) {
	claims, err := s.validate(token, s.refreshSecret, refreshAudience)
	if err != nil {
		return nil, ErrInvalidRefreshToken().WithCause(err)
	}
	return claims, nil
}

func (s *JWTService) validate(token string, secret []byte, audience string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwtClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errx.New("unexpected signing method", errx.TypeAuthentication)
		}
		return secret, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}

	raw, ok := parsed.Claims.(*jwtClaims)
	if !ok || !parsed.Valid {
		return nil, errx.New("invalid token claims", errx.TypeAuthentication)
	}

	claims := Claims{
		UserID:   kernel.UserID(raw.Subject),
		TenantID: kernel.TenantID(raw.TenantID),
		Email:    raw.Email,
		Roles:    raw.Roles,
	}
	if !claims.Validate() {
		return nil, errx.New("invalid token claims", errx.TypeAuthentication)
	}
	return &claims, nil
}
