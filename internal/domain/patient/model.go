package patient

import (
	"strconv"
	"strings"
	"time"
)

// DateLayout is the wire and storage layout of Patient.DateDiagnosed.
const DateLayout = "2006-01-02"

// Stage is the clinical cancer stage attached to a record. It is display-only;
// nothing in this module derives it.
type Stage string

const (
	Stage0   Stage = "0"
	StageI   Stage = "I"
	StageII  Stage = "II"
	StageIII Stage = "III"
	StageIV  Stage = "IV"
)

// Stages lists the known stages in clinical order.
var Stages = []Stage{Stage0, StageI, StageII, StageIII, StageIV}

// ParseStage accepts either the short form ("II") or the long label
// ("Stage II") and returns the short form.
func ParseStage(s string) (Stage, bool) {
	s = strings.TrimSpace(s)
	if len(s) > 6 && strings.EqualFold(s[:6], "stage ") {
		s = strings.TrimSpace(s[6:])
	}
	for _, st := range Stages {
		if strings.EqualFold(s, string(st)) {
			return st, true
		}
	}
	return "", false
}

// Label returns the long display label, e.g. "Stage III".
func (s Stage) Label() string {
	return "Stage " + string(s)
}

// Color is the badge colour used when rendering the stage.
func (s Stage) Color() string {
	switch s {
	case Stage0:
		return "info"
	case StageI:
		return "primary"
	case StageII:
		return "warning"
	case StageIII:
		return "danger"
	case StageIV:
		return "dark"
	default:
		return "secondary"
	}
}

// Patient is a single recorded patient. ID and CreatedAt are assigned by the
// owning repository; the JSON names follow the remote collection's format.
// ID is opaque: local stores mint UUIDs, a remote collection may use its own
// scheme (e.g. 24-hex object ids).
type Patient struct {
	ID            string     `json:"_id,omitempty"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Age           int        `json:"age"`
	Weight        float64    `json:"weight"`
	Location      string     `json:"location"`
	Stage         Stage      `json:"stage"`
	DateDiagnosed string     `json:"dateDiagnosed"`
	CreatedAt     *time.Time `json:"createdAt,omitempty"`
}

// Input is the raw, string-valued candidate collected by the entry form.
type Input struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Age           string `json:"age"`
	Weight        string `json:"weight"`
	Location      string `json:"location"`
	Stage         string `json:"stage"`
	DateDiagnosed string `json:"dateDiagnosed"`
}

// Field names as they appear in ValidationErrors and on the wire.
const (
	FieldName          = "name"
	FieldEmail         = "email"
	FieldAge           = "age"
	FieldWeight        = "weight"
	FieldLocation      = "location"
	FieldStage         = "stage"
	FieldDateDiagnosed = "dateDiagnosed"
)

// Fields lists the editable fields in form order.
var Fields = []string{
	FieldName, FieldEmail, FieldAge, FieldWeight, FieldLocation, FieldStage, FieldDateDiagnosed,
}

// ToPatient converts a validated Input into a Patient. Callers must run
// Validate first; unparsable numbers become zero.
func (in Input) ToPatient() Patient {
	age, _ := strconv.Atoi(strings.TrimSpace(in.Age))
	weight, _ := strconv.ParseFloat(strings.TrimSpace(in.Weight), 64)
	stage, ok := ParseStage(in.Stage)
	if !ok {
		stage = Stage(strings.TrimSpace(in.Stage))
	}
	return Patient{
		Name:          strings.TrimSpace(in.Name),
		Email:         strings.TrimSpace(in.Email),
		Age:           age,
		Weight:        weight,
		Location:      strings.TrimSpace(in.Location),
		Stage:         stage,
		DateDiagnosed: strings.TrimSpace(in.DateDiagnosed),
	}
}

// ToInput renders a Patient back into form values, used to seed the edit
// surface.
func (p Patient) ToInput() Input {
	in := Input{
		Name:          p.Name,
		Email:         p.Email,
		Location:      p.Location,
		Stage:         string(p.Stage),
		DateDiagnosed: p.DateDiagnosed,
	}
	if p.Age != 0 {
		in.Age = strconv.Itoa(p.Age)
	}
	if p.Weight != 0 {
		in.Weight = strconv.FormatFloat(p.Weight, 'f', -1, 64)
	}
	return in
}

// Set assigns a single field by name. It reports false for unknown fields.
func (in *Input) Set(field, value string) bool {
	switch field {
	case FieldName:
		in.Name = value
	case FieldEmail:
		in.Email = value
	case FieldAge:
		in.Age = value
	case FieldWeight:
		in.Weight = value
	case FieldLocation:
		in.Location = value
	case FieldStage:
		in.Stage = value
	case FieldDateDiagnosed:
		in.DateDiagnosed = value
	default:
		return false
	}
	return true
}

// Get returns a single field by name.
func (in Input) Get(field string) string {
	switch field {
	case FieldName:
		return in.Name
	case FieldEmail:
		return in.Email
	case FieldAge:
		return in.Age
	case FieldWeight:
		return in.Weight
	case FieldLocation:
		return in.Location
	case FieldStage:
		return in.Stage
	case FieldDateDiagnosed:
		return in.DateDiagnosed
	}
	return ""
}
