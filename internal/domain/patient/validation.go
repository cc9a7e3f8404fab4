package patient

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const (
	MinAge    = 18
	MaxAge    = 120
	MinWeight = 30.0
	MaxWeight = 300.0
)

// ValidationErrors maps a field name to a human-readable message. An empty
// set means the candidate is valid.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+v[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Valid reports whether no field failed.
func (v ValidationErrors) Valid() bool {
	return len(v) == 0
}

// Validate checks a raw form candidate. Every rule runs independently, so a
// candidate with several bad fields gets one message per field. now only
// affects the future-date check.
func Validate(in Input, now time.Time) ValidationErrors {
	errs := ValidationErrors{}

	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		errs[FieldName] = "Name is required"
	case utf8.RuneCountInString(name) < 2:
		errs[FieldName] = "Name must be at least 2 characters"
	}

	email := strings.TrimSpace(in.Email)
	switch {
	case email == "":
		errs[FieldEmail] = "Email is required"
	case !emailPattern.MatchString(email):
		errs[FieldEmail] = "Email is invalid"
	}

	if age := strings.TrimSpace(in.Age); age == "" {
		errs[FieldAge] = "Age is required"
	} else if n, err := strconv.Atoi(age); err != nil {
		errs[FieldAge] = "Age must be a whole number"
	} else if msg := checkAge(n); msg != "" {
		errs[FieldAge] = msg
	}

	if weight := strings.TrimSpace(in.Weight); weight == "" {
		errs[FieldWeight] = "Weight is required"
	} else if w, err := strconv.ParseFloat(weight, 64); err != nil || math.IsNaN(w) || math.IsInf(w, 0) {
		errs[FieldWeight] = "Weight must be a number"
	} else if msg := checkWeight(w); msg != "" {
		errs[FieldWeight] = msg
	}

	if strings.TrimSpace(in.Location) == "" {
		errs[FieldLocation] = "Location is required"
	}

	if msg := checkStage(in.Stage); msg != "" {
		errs[FieldStage] = msg
	}

	if msg := checkDate(in.DateDiagnosed, now); msg != "" {
		errs[FieldDateDiagnosed] = msg
	}

	return errs
}

// ValidatePatient applies the same rules to an already-typed record. A zero
// age or weight counts as absent.
func ValidatePatient(p Patient, now time.Time) ValidationErrors {
	return Validate(p.ToInput(), now)
}

func checkAge(n int) string {
	if n < MinAge || n > MaxAge {
		return "Age must be between 18 and 120"
	}
	return ""
}

func checkWeight(w float64) string {
	if w < MinWeight || w > MaxWeight {
		return "Weight must be between 30 and 300 kg"
	}
	return ""
}

func checkStage(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Cancer stage is required"
	}
	if _, ok := ParseStage(s); !ok {
		return "Cancer stage is invalid"
	}
	return ""
}

func checkDate(s string, now time.Time) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "Diagnosis date is required"
	}
	d, err := time.ParseInLocation(DateLayout, s, now.Location())
	if err != nil {
		return "Diagnosis date is invalid"
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if d.After(today) {
		return "Date cannot be in the future"
	}
	return ""
}
