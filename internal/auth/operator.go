package auth

import (
	"context"
	"time"
)

// Operator is a staff account that receives the daily token.
type Operator struct {
	ID           string
	Nickname     string
	PasswordHash string
	CurrentToken string
	// TokenDate is the local calendar date CurrentToken was minted for, empty when never issued.
	TokenDate string
	CreatedAt time.Time
}

// PublicOperator is what login hands back to clients.
type PublicOperator struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	Token    string `json:"token"`
}

// Public strips the password hash.
func (o Operator) Public() PublicOperator {
	return PublicOperator{ID: o.ID, Nickname: o.Nickname, Token: o.CurrentToken}
}

// OperatorStore persists operators. Missing rows are reported as apperr.ErrNoRows.
type OperatorStore interface {
	OperatorByNickname(ctx context.Context, nickname string) (Operator, error)
	// FirstOperator returns the earliest created operator.
	FirstOperator(ctx context.Context) (Operator, error)
	// RotateToken stores token for day unless the operator already holds a token for day,
	// then returns the operator as persisted.
	RotateToken(ctx context.Context, id, token, day string) (Operator, error)
	TokenValidOn(ctx context.Context, token, day string) (bool, error)
	// UpsertOperator creates the operator or resets its password hash.
	UpsertOperator(ctx context.Context, nickname, passwordHash string) (Operator, error)
}
