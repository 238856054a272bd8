package store

import (
	"context"
	"fmt"
)

// EnsureSchema creates all tables. Safe to call on every start.
func (d *DB) EnsureSchema(ctx context.Context) error {
	if _, err := d.Client.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS operators (
    id            TEXT PRIMARY KEY,
    nickname      TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    current_token TEXT,
    token_date    DATE,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_operators_token ON operators(current_token, token_date);

CREATE TABLE IF NOT EXISTS students (
    id             TEXT PRIMARY KEY,
    name           TEXT NOT NULL,
    student_number TEXT NOT NULL UNIQUE CHECK (student_number ~ '^[0-9]+$'),
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_students_name ON students(name);

CREATE TABLE IF NOT EXISTS attendance_records (
    id             TEXT PRIMARY KEY,
    student_number TEXT NOT NULL,
    date           DATE NOT NULL,
    status         TEXT NOT NULL CHECK (status IN ('Hadir', 'Izin', 'Sakit', 'Alpa')),
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (student_number, date)
);

CREATE INDEX IF NOT EXISTS idx_attendance_records_date ON attendance_records(date);
`
