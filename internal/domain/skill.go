package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Progress is the lifecycle state of a tracked skill.
type Progress string

const (
	Started    Progress = "started"
	InProgress Progress = "in-progress"
	Completed  Progress = "completed"
)

// Progresses lists the valid states in display order.
var Progresses = []Progress{Started, InProgress, Completed}

const (
	MinDifficulty = 1
	MaxDifficulty = 5
)

// Skill is one tracked learning activity as the API returns it.
// JSON field names are the wire format and must not change.
type Skill struct {
	ID           int64    `json:"id"`
	SkillName    string   `json:"skill_name"`
	ResourceType string   `json:"resource_type"`
	Platform     string   `json:"platform"`
	Notes        string   `json:"notes"`
	Progress     Progress `json:"progress" validate:"oneof=started in-progress completed"`
	HoursSpent   float64  `json:"hours_spent" validate:"gte=0"`
	Difficulty   int      `json:"difficulty" validate:"min=1,max=5"`
}

// Draft holds the fields of a skill that has not been created yet.
type Draft struct {
	SkillName    string `json:"skill_name" validate:"required"`
	ResourceType string `json:"resource_type" validate:"required"`
	Platform     string `json:"platform" validate:"required"`
	Notes        string `json:"notes"`
}

// Field names an inline-editable field of an existing skill.
type Field string

const (
	FieldProgress   Field = "progress"
	FieldHoursSpent Field = "hours_spent"
	FieldDifficulty Field = "difficulty"
	FieldNotes      Field = "notes"
)

// Fields lists every editable field.
var Fields = []Field{FieldProgress, FieldHoursSpent, FieldDifficulty, FieldNotes}

// ErrInvalidValue is returned when a raw field value cannot be applied.
var ErrInvalidValue = errors.New("invalid field value")

// ParseField maps a wire name to a Field.
func ParseField(name string) (Field, error) {
	for _, f := range Fields {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown field %q", name)
}

// ParseHours parses an hours input. Anything unparseable or non-finite
// counts as zero.
func ParseHours(s string) float64 {
	h, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(h) || math.IsInf(h, 0) {
		return 0
	}
	return h
}

// Normalize fills the defaults the server applies to unset columns.
func (s Skill) Normalize() Skill {
	if s.Progress == "" {
		s.Progress = Started
	}
	if s.Difficulty == 0 {
		s.Difficulty = MinDifficulty
	}
	return s
}

// With returns a copy of the skill with exactly one field replaced by the
// parsed raw value. The merged record must pass Validate.
func (s Skill) With(field Field, raw string) (Skill, error) {
	switch field {
	case FieldProgress:
		s.Progress = Progress(strings.TrimSpace(raw))
	case FieldHoursSpent:
		s.HoursSpent = ParseHours(raw)
	case FieldDifficulty:
		d, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return Skill{}, fmt.Errorf("%w: difficulty must be an integer, got %q", ErrInvalidValue, raw)
		}
		s.Difficulty = d
	case FieldNotes:
		s.Notes = raw
	default:
		return Skill{}, fmt.Errorf("%w: unknown field %q", ErrInvalidValue, field)
	}
	if err := s.Validate(); err != nil {
		return Skill{}, err
	}
	return s, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the record against its struct tags. Failures wrap
// ErrInvalidValue and name the offending JSON fields.
func (s Skill) Validate() error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s=%s (got %v)", jsonFieldName(fe.StructField()), fe.Tag(), fe.Param(), fe.Value()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidValue, strings.Join(msgs, ", "))
}

func jsonFieldName(structField string) string {
	switch structField {
	case "Progress":
		return string(FieldProgress)
	case "HoursSpent":
		return string(FieldHoursSpent)
	case "Difficulty":
		return string(FieldDifficulty)
	default:
		return strings.ToLower(structField)
	}
}
