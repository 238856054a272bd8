package handler

import (
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"absensi/internal/attendance"
)

const (
	tagStudentNumber    = "student_number"
	tagAttendanceStatus = "attendance_status"
)

var registerOnce sync.Once

// registerValidators adds the domain binding tags to gin's validator. Field names
// in errors use the json tag so messages match the request body.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation(tagStudentNumber, validStudentNumber)
		_ = v.RegisterValidation(tagAttendanceStatus, validAttendanceStatus)
	})
}

func validStudentNumber(fl validator.FieldLevel) bool {
	s := strings.TrimSpace(fl.Field().String())
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func validAttendanceStatus(fl validator.FieldLevel) bool {
	_, err := attendance.ParseStatus(fl.Field().String())
	return err == nil
}
