package attendance

import (
	"context"
	"database/sql"
	"time"

	"absensi/internal/apperr"
	"absensi/internal/dates"
	"absensi/internal/store"
)

// Repository persists attendance records in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// InsertRecord writes a new record; the (student_number, date) unique constraint
// rejects a second mark for the same day.
func (r *Repository) InsertRecord(ctx context.Context, rec Record) (Record, error) {
	day, err := dates.Parse(rec.Date)
	if err != nil {
		return Record{}, err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO attendance_records (id, student_number, date, status)
		VALUES ($1, $2, $3, $4)
	`, rec.ID, rec.StudentNumber, day, string(rec.Status))
	if err != nil {
		return Record{}, store.Translate(err)
	}
	return rec, nil
}

// UpdateRecordStatus overwrites the status of one record.
func (r *Repository) UpdateRecordStatus(ctx context.Context, id string, status Status) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE attendance_records
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`, id, string(status))
	if err != nil {
		return store.Translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.ErrNoRows
	}
	return nil
}

// ListRecords returns records in span, newest date first.
func (r *Repository) ListRecords(ctx context.Context, span Span) ([]Record, error) {
	where, args, err := spanClause(span)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, student_number, date, status
		FROM attendance_records`+where+`
		ORDER BY date DESC, student_number ASC
	`, args...)
	if err != nil {
		return nil, store.Translate(err)
	}
	defer rows.Close()

	var res []Record
	for rows.Next() {
		var (
			rec    Record
			day    time.Time
			status string
		)
		if err := rows.Scan(&rec.ID, &rec.StudentNumber, &day, &status); err != nil {
			return nil, err
		}
		rec.Date = dates.Format(day)
		rec.Status = Status(status)
		res = append(res, rec)
	}
	return res, rows.Err()
}

// CountByStatus groups records in span by status.
func (r *Repository) CountByStatus(ctx context.Context, span Span) (map[Status]int, error) {
	where, args, err := spanClause(span)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT status, COUNT(*)
		FROM attendance_records`+where+`
		GROUP BY status
	`, args...)
	if err != nil {
		return nil, store.Translate(err)
	}
	defer rows.Close()

	out := make(map[Status]int, len(Statuses))
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		out[Status(status)] = count
	}
	return out, rows.Err()
}

// StudentNumbersOn lists the students holding a record on day.
func (r *Repository) StudentNumbersOn(ctx context.Context, day string) ([]string, error) {
	d, err := dates.Parse(day)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, `SELECT student_number FROM attendance_records WHERE date = $1`, d)
	if err != nil {
		return nil, store.Translate(err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func spanClause(span Span) (string, []any, error) {
	switch {
	case span.Dates != nil:
		days := make([]time.Time, 0, len(span.Dates))
		for _, s := range span.Dates {
			d, err := dates.Parse(s)
			if err != nil {
				return "", nil, err
			}
			days = append(days, d)
		}
		return " WHERE date = ANY($1)", []any{days}, nil
	case span.From != "" || span.To != "":
		from, err := dates.Parse(span.From)
		if err != nil {
			return "", nil, err
		}
		to, err := dates.Parse(span.To)
		if err != nil {
			return "", nil, err
		}
		return " WHERE date BETWEEN $1 AND $2", []any{from, to}, nil
	default:
		return "", nil, nil
	}
}

var _ Store = (*Repository)(nil)
