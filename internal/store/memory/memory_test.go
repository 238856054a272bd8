package memory

import (
	"context"
	"errors"
	"testing"

	"absensi/internal/apperr"
	"absensi/internal/attendance"
	"absensi/internal/roster"
)

func TestRotateTokenKeepsSameDayToken(t *testing.T) {
	s := New()
	ctx := context.Background()
	op, _ := s.UpsertOperator(ctx, "bu_sari", "h")

	a, _ := s.RotateToken(ctx, op.ID, "F1181001", "2026-10-18")
	b, _ := s.RotateToken(ctx, op.ID, "F1181002", "2026-10-18")
	c, _ := s.RotateToken(ctx, op.ID, "F1191003", "2026-10-19")

	if a.CurrentToken != "F1181001" || b.CurrentToken != "F1181001" {
		t.Fatalf("same-day token replaced: %q, %q", a.CurrentToken, b.CurrentToken)
	}
	if c.CurrentToken != "F1191003" || c.TokenDate != "2026-10-19" {
		t.Fatalf("new day not rotated: %+v", c)
	}
	if _, err := s.RotateToken(ctx, "missing", "x", "2026-10-19"); !errors.Is(err, apperr.ErrNoRows) {
		t.Fatalf("err = %v", err)
	}
}

func TestFirstOperatorIsEarliest(t *testing.T) {
	s := New()
	ctx := context.Background()
	if _, err := s.FirstOperator(ctx); !errors.Is(err, apperr.ErrNoRows) {
		t.Fatalf("empty store err = %v", err)
	}
	first, _ := s.UpsertOperator(ctx, "bu_sari", "h")
	_, _ = s.UpsertOperator(ctx, "pak_budi", "h")
	_, _ = s.UpsertOperator(ctx, "bu_sari", "h2")

	got, _ := s.FirstOperator(ctx)
	if got.ID != first.ID || got.PasswordHash != "h2" {
		t.Fatalf("first operator = %+v", got)
	}
}

func TestStudentNumberUnique(t *testing.T) {
	s := New()
	ctx := context.Background()
	st, err := s.InsertStudent(ctx, roster.Student{Name: "Adi", StudentNumber: "1001"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := s.InsertStudent(ctx, roster.Student{Name: "Lain", StudentNumber: "1001"}); !errors.Is(err, apperr.ErrUniqueViolation) {
		t.Fatalf("duplicate err = %v", err)
	}

	_ = s.DeleteStudent(ctx, st.ID)
	if _, err := s.InsertStudent(ctx, roster.Student{Name: "Lain", StudentNumber: "1001"}); err != nil {
		t.Fatalf("number should be free after delete: %v", err)
	}
}

func TestRecordsOrderedAndUnique(t *testing.T) {
	s := New()
	ctx := context.Background()
	seed := []attendance.Record{
		{StudentNumber: "1002", Date: "2026-10-17", Status: attendance.StatusPresent},
		{StudentNumber: "1003", Date: "2026-10-18", Status: attendance.StatusPresent},
		{StudentNumber: "1001", Date: "2026-10-18", Status: attendance.StatusPresent},
	}
	for _, r := range seed {
		if _, err := s.InsertRecord(ctx, r); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	if _, err := s.InsertRecord(ctx, seed[0]); !errors.Is(err, apperr.ErrUniqueViolation) {
		t.Fatalf("duplicate err = %v", err)
	}

	recs, _ := s.ListRecords(ctx, attendance.Span{})
	want := []string{"1001", "1003", "1002"}
	for i, r := range recs {
		if r.StudentNumber != want[i] {
			t.Fatalf("order = %+v", recs)
		}
	}

	counts, _ := s.CountByStatus(ctx, attendance.Span{From: "2026-10-18", To: "2026-10-18"})
	if counts[attendance.StatusPresent] != 2 {
		t.Fatalf("counts = %v", counts)
	}
	if err := s.UpdateRecordStatus(ctx, "missing", attendance.StatusSick); !errors.Is(err, apperr.ErrNoRows) {
		t.Fatalf("update missing err = %v", err)
	}
}
