package auth

import (
	"context"
	"errors"
	"strings"

	"absensi/internal/apperr"
	"absensi/internal/dates"
)

// Service issues and validates daily operator tokens.
type Service struct {
	store  OperatorStore
	clock  dates.Clock
	prefix string
}

// NewService creates a token service. An empty prefix falls back to DefaultTokenPrefix.
func NewService(store OperatorStore, clock dates.Clock, prefix string) *Service {
	if prefix == "" {
		prefix = DefaultTokenPrefix
	}
	if clock == nil {
		clock = dates.SystemClock{}
	}
	return &Service{store: store, clock: clock, prefix: prefix}
}

// Today is the service's notion of the current local date.
func (s *Service) Today() string {
	return dates.Today(s.clock.Now())
}

// IssueOrRefreshToken mints a new token when op's token belongs to another day and
// returns the operator holding today's token. Racing callers on the same day all get
// the token that reached the store first.
func (s *Service) IssueOrRefreshToken(ctx context.Context, op Operator) (Operator, error) {
	now := s.clock.Now()
	today := dates.Today(now)
	if op.TokenDate == today && op.CurrentToken != "" {
		return op, nil
	}

	token, err := NewDailyToken(s.prefix, now)
	if err != nil {
		return Operator{}, apperr.Internal("generate token", err)
	}
	updated, err := s.store.RotateToken(ctx, op.ID, token, today)
	if err != nil {
		if errors.Is(err, apperr.ErrNoRows) {
			return Operator{}, apperr.NotFound("operator not found")
		}
		return Operator{}, apperr.Internal("rotate token", err)
	}
	return updated, nil
}

// ValidateToken reports whether token is some operator's token for today.
func (s *Service) ValidateToken(ctx context.Context, token string) (bool, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return false, nil
	}
	ok, err := s.store.TokenValidOn(ctx, token, s.Today())
	if err != nil {
		return false, apperr.Internal("validate token", err)
	}
	return ok, nil
}

// Login checks credentials and returns the operator with a token valid today.
func (s *Service) Login(ctx context.Context, nickname, password string) (PublicOperator, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" || password == "" {
		return PublicOperator{}, apperr.Validation("nickname and password are required")
	}

	op, err := s.store.OperatorByNickname(ctx, nickname)
	if err != nil {
		if errors.Is(err, apperr.ErrNoRows) {
			return PublicOperator{}, apperr.Auth("login failed, check nickname or password")
		}
		return PublicOperator{}, apperr.Internal("load operator", err)
	}
	if !CheckPassword(op.PasswordHash, password) {
		return PublicOperator{}, apperr.Auth("login failed, check nickname or password")
	}

	op, err = s.IssueOrRefreshToken(ctx, op)
	if err != nil {
		return PublicOperator{}, err
	}
	return op.Public(), nil
}

// CurrentToken refreshes and returns the token of the deployment's single operator.
func (s *Service) CurrentToken(ctx context.Context) (token, day string, err error) {
	op, err := s.store.FirstOperator(ctx)
	if err != nil {
		if errors.Is(err, apperr.ErrNoRows) {
			return "", "", apperr.NotFound("operator not found")
		}
		return "", "", apperr.Internal("load operator", err)
	}
	op, err = s.IssueOrRefreshToken(ctx, op)
	if err != nil {
		return "", "", err
	}
	return op.CurrentToken, op.TokenDate, nil
}

// CreateOperator creates an operator or resets the password of an existing one.
func (s *Service) CreateOperator(ctx context.Context, nickname, password string) (Operator, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" || password == "" {
		return Operator{}, apperr.Validation("nickname and password are required")
	}
	hash, err := HashPassword(password)
	if err != nil {
		return Operator{}, apperr.Internal("hash password", err)
	}
	op, err := s.store.UpsertOperator(ctx, nickname, hash)
	if err != nil {
		return Operator{}, apperr.Internal("save operator", err)
	}
	return op, nil
}
