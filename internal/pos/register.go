package pos

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Createch-Studio/KateringPro-sub000/internal/operators"
)

// SessionStatus is the lifecycle state of a register session.
type SessionStatus string

const (
	SessionOpen   SessionStatus = "open"
	SessionClosed SessionStatus = "closed"
)

var (
	// ErrSessionAlreadyOpen means the operator already has an open drawer.
	ErrSessionAlreadyOpen = errors.New("pos: operator already has an open register session")
	// ErrNoOpenSession means no open drawer exists for the operator.
	ErrNoOpenSession = errors.New("pos: no open register session")
	// ErrNegativeBalance rejects negative opening or closing balances.
	ErrNegativeBalance = errors.New("pos: balance must not be negative")
)

// RegisterSession is one bounded cash-drawer period for an operator. At most
// one open session exists per operator, enforced by a partial unique index on
// the sessions table rather than a query-then-create check.
type RegisterSession struct {
	ID              int64         `json:"id"`
	OperatorID      int64         `json:"operator_id"`
	OpenedAt        time.Time     `json:"opened_at"`
	OpeningBalance  int64         `json:"opening_balance"`
	ClosedAt        *time.Time    `json:"closed_at,omitempty"`
	ClosingBalance  *int64        `json:"closing_balance,omitempty"`
	ExpectedBalance *int64        `json:"expected_balance,omitempty"`
	Variance        *int64        `json:"variance,omitempty"`
	Status          SessionStatus `json:"status"`
}

// SessionStorePort is the persistence the register service needs.
type SessionStorePort interface {
	OpenSession(ctx context.Context, operatorID, openingBalance int64) (*RegisterSession, error)
	GetOpenSession(ctx context.Context, operatorID int64) (*RegisterSession, error)
	GetSession(ctx context.Context, sessionID int64) (*RegisterSession, error)
	CloseSession(ctx context.Context, sessionID, closingBalance, expectedBalance int64) (*RegisterSession, error)
}

// CashSummer totals confirmed cash takings for one session; the billing
// repository provides it.
type CashSummer interface {
	SumCashPayments(ctx context.Context, sessionID int64) (int64, error)
}

// PINVerifier authenticates the operator's drawer PIN.
type PINVerifier interface {
	VerifyPIN(ctx context.Context, operatorID int64, pin string) (*operators.Operator, error)
}

// RegisterService owns the open/close lifecycle of cash drawer sessions.
type RegisterService struct {
	store  SessionStorePort
	cash   CashSummer
	pins   PINVerifier
	logger *slog.Logger
}

func NewRegisterService(store SessionStorePort, cash CashSummer, pins PINVerifier, logger *slog.Logger) *RegisterService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RegisterService{store: store, cash: cash, pins: pins, logger: logger}
}

// Open starts a drawer session after a PIN check. A second open attempt for
// the same operator fails with ErrSessionAlreadyOpen via the storage
// constraint, so two browser tabs cannot both open a drawer.
func (s *RegisterService) Open(ctx context.Context, operatorID int64, pin string, openingBalance int64) (*RegisterSession, error) {
	if openingBalance < 0 {
		return nil, ErrNegativeBalance
	}
	if s.pins != nil {
		if _, err := s.pins.VerifyPIN(ctx, operatorID, pin); err != nil {
			return nil, err
		}
	}
	sess, err := s.store.OpenSession(ctx, operatorID, openingBalance)
	if err != nil {
		return nil, err
	}
	s.logger.Info("register session opened",
		slog.Int64("session_id", sess.ID),
		slog.Int64("operator_id", operatorID),
		slog.Int64("opening_balance", openingBalance))
	return sess, nil
}

// Current returns the operator's open session, or ErrNoOpenSession.
func (s *RegisterService) Current(ctx context.Context, operatorID int64) (*RegisterSession, error) {
	return s.store.GetOpenSession(ctx, operatorID)
}

// Close ends a session. The expected balance is the opening float plus the
// cash taken during the session; the stored variance is counted minus
// expected so a short drawer shows negative.
func (s *RegisterService) Close(ctx context.Context, sessionID, closingBalance int64) (*RegisterSession, error) {
	if closingBalance < 0 {
		return nil, ErrNegativeBalance
	}
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status != SessionOpen {
		return nil, ErrNoOpenSession
	}

	cashTaken, err := s.cash.SumCashPayments(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("pos: close session: %w", err)
	}
	expected := sess.OpeningBalance + cashTaken

	closed, err := s.store.CloseSession(ctx, sessionID, closingBalance, expected)
	if err != nil {
		return nil, err
	}
	s.logger.Info("register session closed",
		slog.Int64("session_id", sessionID),
		slog.Int64("closing_balance", closingBalance),
		slog.Int64("expected_balance", expected),
		slog.Int64("variance", closingBalance-expected))
	return closed, nil
}
