package tenant

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/konnected/identity/pkg/errx"
	"github.com/konnected/identity/pkg/kernel"
)

// ============================================================================
// Domain Types
// ============================================================================

// Tenant is an isolated organization. Every user, role, permission, and
// invitation belongs to exactly one tenant.
type Tenant struct {
	ID        kernel.TenantID `db:"id" json:"id"`
	Name      string          `db:"name" json:"name"`
	Slug      string          `db:"slug" json:"slug"`
	IsActive  bool            `db:"is_active" json:"is_active"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
var slugStrip = regexp.MustCompile(`[^a-z0-9 -]`)

// DeriveSlug turns an organization name into a URL-safe slug: lowercase,
// punctuation stripped, spaces collapsed to single hyphens.
func DeriveSlug(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = slugStrip.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), "-")
	return strings.Trim(s, "-")
}

// ValidSlug reports whether s is an acceptable tenant slug.
func ValidSlug(s string) bool {
	return len(s) >= 2 && len(s) <= 63 && slugPattern.MatchString(s)
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("TENANT")

var (
	CodeNotFound    = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Tenant not found")
	CodeSlugTaken   = ErrRegistry.Register("SLUG_TAKEN", errx.TypeConflict, http.StatusConflict, "An organization with this slug already exists")
	CodeInvalidSlug = ErrRegistry.Register("INVALID_SLUG", errx.TypeValidation, http.StatusBadRequest, "Organization slug must be lowercase letters, digits, and hyphens")
	CodeInvalidName = ErrRegistry.Register("INVALID_NAME", errx.TypeValidation, http.StatusBadRequest, "Organization name is required")
	CodeInactive    = ErrRegistry.Register("INACTIVE", errx.TypeForbidden, http.StatusForbidden, "Organization is inactive")
)

// Helper functions
func ErrNotFound() *errx.Error {
	return ErrRegistry.New(CodeNotFound)
}

func ErrSlugTaken() *errx.Error {
	return ErrRegistry.New(CodeSlugTaken)
}

func ErrInvalidSlug() *errx.Error {
	return ErrRegistry.New(CodeInvalidSlug)
}

func ErrInvalidName() *errx.Error {
	return ErrRegistry.New(CodeInvalidName)
}

func ErrInactive() *errx.Error {
	return ErrRegistry.New(CodeInactive)
}
