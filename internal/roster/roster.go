// Package roster keeps the registry of enrolled students.
package roster

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"absensi/internal/apperr"
)

// EventStudentAdded is published after a student is registered.
const EventStudentAdded = "student-added"

var numericRe = regexp.MustCompile(`^[0-9]+$`)

// Student is an enrolled student. StudentNumber is unique and purely numeric.
type Student struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	StudentNumber string `json:"student_number"`
}

// Store persists students. Duplicate numbers are reported as apperr.ErrUniqueViolation.
type Store interface {
	// ListStudents returns every student ordered by name.
	ListStudents(ctx context.Context) ([]Student, error)
	InsertStudent(ctx context.Context, s Student) (Student, error)
	// DeleteStudent removes a student; deleting a missing id is not an error.
	DeleteStudent(ctx context.Context, id string) error
	StudentExists(ctx context.Context, studentNumber string) (bool, error)
	CountStudents(ctx context.Context) (int, error)
}

// Notifier receives roster mutations for realtime viewers.
type Notifier interface {
	Publish(ctx context.Context, event string, payload any)
}

// Service validates roster changes before they reach the store.
type Service struct {
	store    Store
	notifier Notifier
}

// NewService creates a roster service. notifier may be nil.
func NewService(store Store, notifier Notifier) *Service {
	return &Service{store: store, notifier: notifier}
}

// List returns all students sorted by name.
func (s *Service) List(ctx context.Context) ([]Student, error) {
	students, err := s.store.ListStudents(ctx)
	if err != nil {
		return nil, apperr.Internal("list students", err)
	}
	if students == nil {
		students = []Student{}
	}
	return students, nil
}

// Add registers a student.
func (s *Service) Add(ctx context.Context, name, studentNumber string) (Student, error) {
	name = strings.TrimSpace(name)
	studentNumber = strings.TrimSpace(studentNumber)
	if name == "" || studentNumber == "" {
		return Student{}, apperr.Validation("name and student_number are required")
	}
	if !numericRe.MatchString(studentNumber) {
		return Student{}, apperr.Validation("student_number must be numeric")
	}

	created, err := s.store.InsertStudent(ctx, Student{Name: name, StudentNumber: studentNumber})
	if err != nil {
		if errors.Is(err, apperr.ErrUniqueViolation) {
			return Student{}, apperr.Conflict("student_number already registered")
		}
		return Student{}, apperr.Internal("insert student", err)
	}
	if s.notifier != nil {
		s.notifier.Publish(ctx, EventStudentAdded, created)
	}
	return created, nil
}

// Remove deletes a student by id. Unknown ids succeed.
func (s *Service) Remove(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return apperr.Validation("id is required")
	}
	if err := s.store.DeleteStudent(ctx, id); err != nil {
		return apperr.Internal("delete student", err)
	}
	return nil
}

// Exists reports whether a student number is enrolled.
func (s *Service) Exists(ctx context.Context, studentNumber string) (bool, error) {
	ok, err := s.store.StudentExists(ctx, studentNumber)
	if err != nil {
		return false, apperr.Internal("check student", err)
	}
	return ok, nil
}

// Count returns the number of enrolled students.
func (s *Service) Count(ctx context.Context) (int, error) {
	n, err := s.store.CountStudents(ctx)
	if err != nil {
		return 0, apperr.Internal("count students", err)
	}
	return n, nil
}
