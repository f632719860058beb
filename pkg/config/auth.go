package config

import "time"

// AuthConfig groups everything the authentication core needs.
type AuthConfig struct {
	JWT        JWTConfig
	Password   PasswordConfig
	Invitation InvitationConfig
	Throttle   ThrottleConfig

	// TokenCleanupInterval is how often expired refresh tokens are purged.
	TokenCleanupInterval time.Duration
}

// JWTConfig configures token signing. Access and refresh tokens use distinct
// secrets so one class can never be replayed as the other.
type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

// PasswordConfig configures credential hashing.
type PasswordConfig struct {
	BcryptCost int
}

// InvitationConfig configures invitation issuance.
type InvitationConfig struct {
	TTL         time.Duration
	TokenLength int
}

// ThrottleConfig configures the login attempt throttle.
type ThrottleConfig struct {
	Enabled     bool
	MaxAttempts int
	Window      time.Duration
}

func loadAuthConfig() AuthConfig {
	return AuthConfig{
		JWT: JWTConfig{
			AccessSecret:  getEnv("ACCESS_TOKEN_SECRET", getEnv("JWT_SECRET", "")),
			RefreshSecret: getEnv("REFRESH_TOKEN_SECRET", ""),
			AccessTTL:     getEnvDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
			RefreshTTL:    getEnvDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
			Issuer:        getEnv("JWT_ISSUER", "konnected-identity"),
		},
		Password: PasswordConfig{
			BcryptCost: getEnvInt("BCRYPT_COST", 10),
		},
		Invitation: InvitationConfig{
			TTL:         getEnvDuration("INVITATION_TTL", 7*24*time.Hour),
			TokenLength: getEnvInt("INVITATION_TOKEN_LENGTH", 32),
		},
		Throttle: ThrottleConfig{
			Enabled:     getEnvBool("LOGIN_THROTTLE_ENABLED", true),
			MaxAttempts: getEnvInt("LOGIN_THROTTLE_MAX_ATTEMPTS", 10),
			Window:      getEnvDuration("LOGIN_THROTTLE_WINDOW", 15*time.Minute),
		},
		TokenCleanupInterval: getEnvDuration("TOKEN_CLEANUP_INTERVAL", time.Hour),
	}
}
