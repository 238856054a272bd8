package auth

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"absensi/internal/dates"
	"absensi/internal/store"
)

// Repository persists operators in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const operatorColumns = `id, nickname, password_hash, current_token, token_date, created_at`

func scanOperator(row interface{ Scan(...any) error }) (Operator, error) {
	var (
		op    Operator
		token sql.NullString
		day   sql.NullTime
	)
	if err := row.Scan(&op.ID, &op.Nickname, &op.PasswordHash, &token, &day, &op.CreatedAt); err != nil {
		return Operator{}, store.Translate(err)
	}
	op.CurrentToken = token.String
	if day.Valid {
		op.TokenDate = dates.Format(day.Time)
	}
	return op, nil
}

// OperatorByNickname looks an operator up by login name.
func (r *Repository) OperatorByNickname(ctx context.Context, nickname string) (Operator, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+operatorColumns+` FROM operators WHERE nickname = $1`, nickname)
	return scanOperator(row)
}

// FirstOperator returns the earliest created operator.
func (r *Repository) FirstOperator(ctx context.Context) (Operator, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+operatorColumns+` FROM operators ORDER BY created_at, id LIMIT 1`)
	return scanOperator(row)
}

// RotateToken only writes when the stored token is not already for day, so the
// first writer of the day wins and later writers read its token back.
func (r *Repository) RotateToken(ctx context.Context, id, token, day string) (Operator, error) {
	d, err := dates.Parse(day)
	if err != nil {
		return Operator{}, err
	}
	_, err = r.db.ExecContext(ctx, `
		UPDATE operators
		SET current_token = $2, token_date = $3
		WHERE id = $1
		  AND (token_date IS NULL OR token_date <> $3 OR current_token IS NULL)
	`, id, token, d)
	if err != nil {
		return Operator{}, store.Translate(err)
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+operatorColumns+` FROM operators WHERE id = $1`, id)
	return scanOperator(row)
}

// TokenValidOn reports whether any operator holds token for day.
func (r *Repository) TokenValidOn(ctx context.Context, token, day string) (bool, error) {
	d, err := dates.Parse(day)
	if err != nil {
		return false, err
	}
	var ok bool
	err = r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM operators WHERE current_token = $1 AND token_date = $2)
	`, token, d).Scan(&ok)
	if err != nil {
		return false, store.Translate(err)
	}
	return ok, nil
}

// UpsertOperator creates an operator or replaces its password hash.
func (r *Repository) UpsertOperator(ctx context.Context, nickname, passwordHash string) (Operator, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO operators (id, nickname, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (nickname) DO UPDATE SET password_hash = EXCLUDED.password_hash
		RETURNING `+operatorColumns, uuid.NewString(), nickname, passwordHash, time.Now().UTC())
	return scanOperator(row)
}

var _ OperatorStore = (*Repository)(nil)
