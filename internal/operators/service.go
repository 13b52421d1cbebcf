package operators

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidPIN indicates a failed drawer PIN check.
var ErrInvalidPIN = errors.New("operators: invalid pin")

// RepositoryPort defines data access methods for operators.
type RepositoryPort interface {
	Get(ctx context.Context, id int64) (*Operator, error)
}

// Service wraps operator verification rules.
type Service struct {
	repo RepositoryPort
}

func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// VerifyPIN checks an operator's drawer PIN before a register session opens.
func (s *Service) VerifyPIN(ctx context.Context, operatorID int64, pin string) (*Operator, error) {
	op, err := s.repo.Get(ctx, operatorID)
	if err != nil {
		return nil, ErrInvalidPIN
	}
	if !op.IsActive {
		return nil, ErrInvalidPIN
	}
	if err := bcrypt.CompareHashAndPassword([]byte(op.PINHash), []byte(pin)); err != nil {
		return nil, ErrInvalidPIN
	}
	return op, nil
}

// HashPIN produces the stored hash for a drawer PIN.
func HashPIN(pin string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
