package roster

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"absensi/internal/store"
)

// Repository persists students in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// ListStudents returns all students ordered by name.
func (r *Repository) ListStudents(ctx context.Context) ([]Student, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, student_number
		FROM students
		ORDER BY name, student_number
	`)
	if err != nil {
		return nil, store.Translate(err)
	}
	defer rows.Close()

	var students []Student
	for rows.Next() {
		var s Student
		if err := rows.Scan(&s.ID, &s.Name, &s.StudentNumber); err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

// InsertStudent writes a student, assigning an id when missing.
func (r *Repository) InsertStudent(ctx context.Context, s Student) (Student, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO students (id, name, student_number)
		VALUES ($1, $2, $3)
	`, s.ID, s.Name, s.StudentNumber)
	if err != nil {
		return Student{}, store.Translate(err)
	}
	return s, nil
}

// DeleteStudent removes a student by id.
func (r *Repository) DeleteStudent(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	return store.Translate(err)
}

// StudentExists reports whether the number is enrolled.
func (r *Repository) StudentExists(ctx context.Context, studentNumber string) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM students WHERE student_number = $1)`, studentNumber).Scan(&ok)
	if err != nil {
		return false, store.Translate(err)
	}
	return ok, nil
}

// CountStudents returns the roster size.
func (r *Repository) CountStudents(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM students`).Scan(&n); err != nil {
		return 0, store.Translate(err)
	}
	return n, nil
}

var _ Store = (*Repository)(nil)
