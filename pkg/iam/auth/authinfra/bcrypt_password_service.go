package authinfra

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/konnected/identity/pkg/errx"
	"github.com/konnected/identity/pkg/iam/auth"
)

// BcryptPasswordService hashes credentials with bcrypt. The cost never goes
// below bcrypt.DefaultCost regardless of configuration.
type BcryptPasswordService struct {
	cost int
}

var _ auth.PasswordService = (*BcryptPasswordService)(nil)

func NewBcryptPasswordService(cost int) *BcryptPasswordService {
	if cost < bcrypt.DefaultCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptPasswordService{cost: cost}
}

func (s *BcryptPasswordService) Hash(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), s.cost)
	if err != nil {
		return "", errx.Wrap(err, "failed to hash password", errx.TypeInternal)
	}
	return string(hash), nil
}

func (s *BcryptPasswordService) Verify(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
