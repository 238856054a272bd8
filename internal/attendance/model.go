package attendance

import (
	"context"
	"strings"

	"absensi/internal/apperr"
	"absensi/internal/dates"
)

// Status is the attendance outcome stored for a student on a date.
type Status string

const (
	StatusPresent Status = "Hadir"
	StatusExcused Status = "Izin"
	StatusSick    Status = "Sakit"
	StatusAbsent  Status = "Alpa"
)

// Statuses lists every valid status.
var Statuses = []Status{StatusPresent, StatusExcused, StatusSick, StatusAbsent}

var statusAliases = map[string]Status{
	"hadir":   StatusPresent,
	"present": StatusPresent,
	"izin":    StatusExcused,
	"excused": StatusExcused,
	"sakit":   StatusSick,
	"sick":    StatusSick,
	"alpa":    StatusAbsent,
	"absent":  StatusAbsent,
}

// ParseStatus accepts the stored values and their English names, case-insensitively.
func ParseStatus(s string) (Status, error) {
	if st, ok := statusAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return st, nil
	}
	return "", apperr.Validation("invalid status")
}

// Valid reports whether s is one of the stored values.
func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusExcused, StatusSick, StatusAbsent:
		return true
	default:
		return false
	}
}

// Record is one student's attendance on one date.
type Record struct {
	ID            string `json:"id"`
	StudentNumber string `json:"student_number"`
	Date          string `json:"date"`
	Status        Status `json:"status"`
}

// StatusChange is the payload of a status-updated event.
type StatusChange struct {
	ID     string `json:"id"`
	Status Status `json:"status"`
}

// Statistics aggregates records over a set of dates.
type Statistics struct {
	Present      int `json:"present"`
	Excused      int `json:"excused"`
	Sick         int `json:"sick"`
	Absent       int `json:"absent"`
	NotYetMarked int `json:"not_yet_marked"`
	Total        int `json:"total"`
}

// Span selects records by date. The zero Span selects everything; Dates takes
// precedence over the inclusive From/To range.
type Span struct {
	Dates []string
	From  string
	To    string
}

// All reports whether the span is unrestricted.
func (s Span) All() bool {
	return s.Dates == nil && s.From == "" && s.To == ""
}

// Store persists attendance records. A second record for the same
// (student_number, date) fails with apperr.ErrUniqueViolation; a missing id fails
// with apperr.ErrNoRows.
type Store interface {
	InsertRecord(ctx context.Context, r Record) (Record, error)
	UpdateRecordStatus(ctx context.Context, id string, status Status) error
	// ListRecords orders by date descending, then student_number ascending.
	ListRecords(ctx context.Context, span Span) ([]Record, error)
	CountByStatus(ctx context.Context, span Span) (map[Status]int, error)
	StudentNumbersOn(ctx context.Context, day string) ([]string, error)
}

// FilterKind names a query window.
type FilterKind string

const (
	FilterAll   FilterKind = "all"
	FilterDay   FilterKind = "day"
	FilterWeek  FilterKind = "week"
	FilterMonth FilterKind = "month"
	FilterRange FilterKind = "range"
	FilterDate  FilterKind = "date"
)

// Filter is a parsed query window.
type Filter struct {
	Kind  FilterKind
	Start string
	End   string
	Date  string
}

// ParseFilter turns query parameters into a Filter. A named window wins over
// start/end; start and end must be given together.
func ParseFilter(name, start, end string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "day", "today", "hari":
		return Filter{Kind: FilterDay}, nil
	case "week", "minggu":
		return Filter{Kind: FilterWeek}, nil
	case "month", "bulan":
		return Filter{Kind: FilterMonth}, nil
	case "", "all", "range":
	default:
		return Filter{}, apperr.Validation("unknown filter")
	}

	if start == "" && end == "" {
		return Filter{Kind: FilterAll}, nil
	}
	if start == "" || end == "" {
		return Filter{}, apperr.Validation("startDate and endDate must be given together")
	}
	if err := dates.CheckRange(start, end); err != nil {
		return Filter{}, apperr.Validation(err.Error())
	}
	return Filter{Kind: FilterRange, Start: start, End: end}, nil
}

// ExactDate filters a single date.
func ExactDate(day string) (Filter, error) {
	if !dates.Valid(day) {
		return Filter{}, apperr.Validation("date must be YYYY-MM-DD")
	}
	return Filter{Kind: FilterDate, Date: day}, nil
}
