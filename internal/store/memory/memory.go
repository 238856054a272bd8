// Package memory is a mutex-guarded in-process store for dev and tests. It honours
// the same uniqueness rules as the Postgres schema.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"absensi/internal/apperr"
	"absensi/internal/attendance"
	"absensi/internal/auth"
	"absensi/internal/roster"
)

type recordKey struct {
	studentNumber string
	date          string
}

// Store keeps operators, students and attendance records in maps.
type Store struct {
	mu sync.RWMutex

	operators  map[string]auth.Operator // by id
	opOrder    []string
	students   map[string]roster.Student // by id
	byNumber   map[string]string         // student_number -> id
	records    map[string]attendance.Record
	recordKeys map[recordKey]string
}

// New returns an empty store.
func New() *Store {
	return &Store{
		operators:  make(map[string]auth.Operator),
		students:   make(map[string]roster.Student),
		byNumber:   make(map[string]string),
		records:    make(map[string]attendance.Record),
		recordKeys: make(map[recordKey]string),
	}
}

// OperatorByNickname returns the operator with that login name, or ErrNoRows.
func (s *Store) OperatorByNickname(_ context.Context, nickname string) (auth.Operator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.opOrder {
		if op := s.operators[id]; op.Nickname == nickname {
			return op, nil
		}
	}
	return auth.Operator{}, apperr.ErrNoRows
}

// FirstOperator returns the earliest created operator.
func (s *Store) FirstOperator(_ context.Context) (auth.Operator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.opOrder) == 0 {
		return auth.Operator{}, apperr.ErrNoRows
	}
	return s.operators[s.opOrder[0]], nil
}

// RotateToken stores token for day unless the operator already holds a token for day.
// It returns the operator as stored.
func (s *Store) RotateToken(_ context.Context, id, token, day string) (auth.Operator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	op, ok := s.operators[id]
	if !ok {
		return auth.Operator{}, apperr.ErrNoRows
	}
	if op.TokenDate != day || op.CurrentToken == "" {
		op.CurrentToken = token
		op.TokenDate = day
		s.operators[id] = op
	}
	return op, nil
}

// TokenValidOn reports whether any operator issued token for day.
func (s *Store) TokenValidOn(_ context.Context, token, day string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, op := range s.operators {
		if op.CurrentToken == token && op.TokenDate == day {
			return true, nil
		}
	}
	return false, nil
}

// UpsertOperator creates the operator or replaces its password hash.
func (s *Store) UpsertOperator(_ context.Context, nickname, passwordHash string) (auth.Operator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.opOrder {
		if op := s.operators[id]; op.Nickname == nickname {
			op.PasswordHash = passwordHash
			s.operators[id] = op
			return op, nil
		}
	}
	op := auth.Operator{
		ID:           uuid.NewString(),
		Nickname:     nickname,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	s.operators[op.ID] = op
	s.opOrder = append(s.opOrder, op.ID)
	return op, nil
}

// ListStudents returns the roster ordered by name, then student number.
func (s *Store) ListStudents(_ context.Context) ([]roster.Student, error) {
	s.mu.RLock()
	out := make([]roster.Student, 0, len(s.students))
	for _, st := range s.students {
		out = append(out, st)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].StudentNumber < out[j].StudentNumber
	})
	return out, nil
}

// InsertStudent adds st. A taken student number yields ErrUniqueViolation.
func (s *Store) InsertStudent(_ context.Context, st roster.Student) (roster.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.byNumber[st.StudentNumber]; dup {
		return roster.Student{}, fmt.Errorf("%w: students_student_number_key", apperr.ErrUniqueViolation)
	}
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	s.students[st.ID] = st
	s.byNumber[st.StudentNumber] = st.ID
	return st, nil
}

// DeleteStudent removes the student if present.
func (s *Store) DeleteStudent(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.students[id]; ok {
		delete(s.byNumber, st.StudentNumber)
		delete(s.students, id)
	}
	return nil
}

// StudentExists reports whether studentNumber is on the roster.
func (s *Store) StudentExists(_ context.Context, studentNumber string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byNumber[studentNumber]
	return ok, nil
}

// CountStudents returns the roster size.
func (s *Store) CountStudents(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.students), nil
}

// InsertRecord stores rec. A second record for the same student and date yields
// ErrUniqueViolation.
func (s *Store) InsertRecord(_ context.Context, rec attendance.Record) (attendance.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := recordKey{studentNumber: rec.StudentNumber, date: rec.Date}
	if _, dup := s.recordKeys[key]; dup {
		return attendance.Record{}, fmt.Errorf("%w: attendance_records_student_number_date_key", apperr.ErrUniqueViolation)
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	s.records[rec.ID] = rec
	s.recordKeys[key] = rec.ID
	return rec, nil
}

// UpdateRecordStatus changes a record's status, or returns ErrNoRows.
func (s *Store) UpdateRecordStatus(_ context.Context, id string, status attendance.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return apperr.ErrNoRows
	}
	rec.Status = status
	s.records[id] = rec
	return nil
}

// ListRecords returns records inside span, newest date first.
func (s *Store) ListRecords(_ context.Context, span attendance.Span) ([]attendance.Record, error) {
	match := spanMatcher(span)
	s.mu.RLock()
	var out []attendance.Record
	for _, rec := range s.records {
		if match(rec.Date) {
			out = append(out, rec)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].StudentNumber < out[j].StudentNumber
	})
	return out, nil
}

// CountByStatus tallies the records inside span per status.
func (s *Store) CountByStatus(_ context.Context, span attendance.Span) (map[attendance.Status]int, error) {
	match := spanMatcher(span)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[attendance.Status]int, len(attendance.Statuses))
	for _, rec := range s.records {
		if match(rec.Date) {
			out[rec.Status]++
		}
	}
	return out, nil
}

// StudentNumbersOn lists the student numbers marked on day.
func (s *Store) StudentNumbersOn(_ context.Context, day string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for key := range s.recordKeys {
		if key.date == day {
			out = append(out, key.studentNumber)
		}
	}
	return out, nil
}

// spanMatcher compares "YYYY-MM-DD" strings, whose lexical order is calendar order.
func spanMatcher(span attendance.Span) func(string) bool {
	switch {
	case span.Dates != nil:
		set := make(map[string]struct{}, len(span.Dates))
		for _, d := range span.Dates {
			set[d] = struct{}{}
		}
		return func(d string) bool {
			_, ok := set[d]
			return ok
		}
	case span.From != "" || span.To != "":
		return func(d string) bool { return d >= span.From && d <= span.To }
	default:
		return func(string) bool { return true }
	}
}

var (
	_ auth.OperatorStore = (*Store)(nil)
	_ roster.Store       = (*Store)(nil)
	_ attendance.Store   = (*Store)(nil)
)
