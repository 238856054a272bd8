package attendance

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"absensi/internal/apperr"
	"absensi/internal/dates"
	"absensi/internal/roster"
)

// Realtime event names.
const (
	EventAttendanceAdded = "attendance-added"
	EventStatusUpdated   = "status-updated"
)

// TokenValidator checks daily operator tokens.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (bool, error)
}

// Roster is the part of the roster the ledger reads.
type Roster interface {
	Exists(ctx context.Context, studentNumber string) (bool, error)
	Count(ctx context.Context) (int, error)
	List(ctx context.Context) ([]roster.Student, error)
}

// Notifier receives ledger mutations for realtime viewers.
type Notifier interface {
	Publish(ctx context.Context, event string, payload any)
}

// Ledger records one attendance status per student per day.
type Ledger struct {
	store    Store
	tokens   TokenValidator
	roster   Roster
	notifier Notifier
	clock    dates.Clock
}

// NewLedger wires the ledger to its collaborators. notifier may be nil.
func NewLedger(store Store, tokens TokenValidator, r Roster, notifier Notifier, clock dates.Clock) *Ledger {
	if clock == nil {
		clock = dates.SystemClock{}
	}
	return &Ledger{store: store, tokens: tokens, roster: r, notifier: notifier, clock: clock}
}

func (l *Ledger) today() string {
	return dates.Today(l.clock.Now())
}

func (l *Ledger) publish(ctx context.Context, event string, payload any) {
	if l.notifier != nil {
		l.notifier.Publish(ctx, event, payload)
	}
}

// Record marks a student present for today. The store's unique constraint decides
// between concurrent submissions for the same student.
func (l *Ledger) Record(ctx context.Context, studentNumber, token string) (Record, error) {
	studentNumber = strings.TrimSpace(studentNumber)
	if studentNumber == "" || strings.TrimSpace(token) == "" {
		return Record{}, apperr.Validation("student_number and token are required")
	}

	valid, err := l.tokens.ValidateToken(ctx, token)
	if err != nil {
		return Record{}, err
	}
	if !valid {
		return Record{}, apperr.Auth("token is invalid or expired")
	}

	exists, err := l.roster.Exists(ctx, studentNumber)
	if err != nil {
		return Record{}, err
	}
	if !exists {
		return Record{}, apperr.NotFound("student_number not found")
	}

	rec, err := l.store.InsertRecord(ctx, Record{
		ID:            uuid.NewString(),
		StudentNumber: studentNumber,
		Date:          l.today(),
		Status:        StatusPresent,
	})
	if err != nil {
		if errors.Is(err, apperr.ErrUniqueViolation) {
			return Record{}, apperr.Conflict("attendance already recorded today")
		}
		return Record{}, apperr.Internal("insert record", err)
	}

	l.publish(ctx, EventAttendanceAdded, rec)
	return rec, nil
}

// UpdateStatus corrects the status of a record. Any status may replace any other.
func (l *Ledger) UpdateStatus(ctx context.Context, id, status string) (StatusChange, error) {
	st, err := ParseStatus(status)
	if err != nil {
		return StatusChange{}, err
	}
	if strings.TrimSpace(id) == "" {
		return StatusChange{}, apperr.Validation("id is required")
	}

	if err := l.store.UpdateRecordStatus(ctx, id, st); err != nil {
		if errors.Is(err, apperr.ErrNoRows) {
			return StatusChange{}, apperr.NotFound("attendance record not found")
		}
		return StatusChange{}, apperr.Internal("update status", err)
	}

	change := StatusChange{ID: id, Status: st}
	l.publish(ctx, EventStatusUpdated, change)
	return change, nil
}

// Span resolves a filter into concrete dates relative to today.
func (l *Ledger) Span(f Filter) Span {
	now := l.clock.Now()
	switch f.Kind {
	case FilterDay:
		return Span{Dates: []string{dates.Today(now)}}
	case FilterWeek:
		return Span{Dates: dates.WeekDates(now)}
	case FilterMonth:
		return Span{Dates: dates.MonthDates(now)}
	case FilterRange:
		return Span{From: f.Start, To: f.End}
	case FilterDate:
		return Span{Dates: []string{f.Date}}
	default:
		return Span{}
	}
}

// Query lists records in the filter's window, newest date first.
func (l *Ledger) Query(ctx context.Context, f Filter) ([]Record, error) {
	records, err := l.store.ListRecords(ctx, l.Span(f))
	if err != nil {
		return nil, apperr.Internal("list records", err)
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

// Statistics counts records per status over days (all records when empty) and
// derives how many enrolled students have no mark.
func (l *Ledger) Statistics(ctx context.Context, days ...string) (Statistics, error) {
	var span Span
	if len(days) > 0 {
		span.Dates = make([]string, 0, len(days))
		for _, d := range days {
			d = strings.TrimSpace(d)
			if !dates.Valid(d) {
				return Statistics{}, apperr.Validation("dates must be YYYY-MM-DD")
			}
			span.Dates = append(span.Dates, d)
		}
	}

	total, err := l.roster.Count(ctx)
	if err != nil {
		return Statistics{}, err
	}
	counts, err := l.store.CountByStatus(ctx, span)
	if err != nil {
		return Statistics{}, apperr.Internal("count records", err)
	}

	stats := Statistics{
		Present: counts[StatusPresent],
		Excused: counts[StatusExcused],
		Sick:    counts[StatusSick],
		Absent:  counts[StatusAbsent],
		Total:   total,
	}
	stats.NotYetMarked = total - (stats.Present + stats.Excused + stats.Sick + stats.Absent)
	return stats, nil
}

// ListUnmarked returns enrolled students without a record on day (today when empty),
// ordered by name.
func (l *Ledger) ListUnmarked(ctx context.Context, day string) ([]roster.Student, error) {
	day = strings.TrimSpace(day)
	if day == "" {
		day = l.today()
	} else if !dates.Valid(day) {
		return nil, apperr.Validation("date must be YYYY-MM-DD")
	}

	students, err := l.roster.List(ctx)
	if err != nil {
		return nil, err
	}
	marked, err := l.store.StudentNumbersOn(ctx, day)
	if err != nil {
		return nil, apperr.Internal("list marked students", err)
	}

	seen := make(map[string]struct{}, len(marked))
	for _, n := range marked {
		seen[n] = struct{}{}
	}
	out := make([]roster.Student, 0, len(students))
	for _, s := range students {
		if _, ok := seen[s.StudentNumber]; !ok {
			out = append(out, s)
		}
	}
	return out, nil
}
