package refdata

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/aiesec-vn/ogvhub/core"
)

// UTM link entity types
const (
	EntityLC       = "LC"
	EntityNational = "NATIONAL"
	EntityEMT      = "EMT"
)

var errPhaseWindow = errors.New("end date must not be before start date")

type UniversityMapping struct {
	UniversityName string `json:"university_name" validate:"required,max=300"`
	LC             string `json:"lc" validate:"required,lccode"`
}

func (m *UniversityMapping) Validate(validate *validator.Validate) error {
	m.UniversityName = core.CleanString(m.UniversityName)
	m.LC = core.CleanString(m.LC)
	return validate.Struct(m)
}

// Phase is a recruitment period. Dates are inclusive calendar days (UTC).
type Phase struct {
	Code      string    `json:"code" validate:"required,max=50"`
	Name      string    `json:"name" validate:"required,max=200"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required"`
}

func (p *Phase) Validate(validate *validator.Validate) error {
	p.Code = core.CleanString(p.Code)
	p.Name = core.CleanString(p.Name)
	if err := validate.Struct(p); err != nil {
		return err
	}
	if p.EndDate.Before(p.StartDate) {
		return core.NewValidationError(errPhaseWindow, core.FieldError{Field: "end_date", Error: errPhaseWindow.Error()})
	}
	return nil
}

// Window returns [from, to) covering every day of the phase.
func (p Phase) Window() (time.Time, time.Time) {
	s, e := p.StartDate.UTC(), p.EndDate.UTC()
	from := time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, time.UTC)
	to := time.Date(e.Year(), e.Month(), e.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	return from, to
}

func (p Phase) Contains(t time.Time) bool {
	from, to := p.Window()
	return !t.Before(from) && t.Before(to)
}

// Goal is the target submission count of an LC for a phase.
type Goal struct {
	LC        string `json:"lc" validate:"required,lccode"`
	PhaseCode string `json:"phase_code" validate:"required"`
	Target    int    `json:"target" validate:"min=0"`
}

func (g *Goal) Validate(validate *validator.Validate) error {
	g.LC = core.CleanString(g.LC)
	g.PhaseCode = core.CleanString(g.PhaseCode)
	return validate.Struct(g)
}

// UTMLink registers a tracking term or URL to an LC or to the national team.
type UTMLink struct {
	ID         string    `json:"id"`
	EntityType string    `json:"entity_type" validate:"required,oneof=LC NATIONAL EMT"`
	EntityCode string    `json:"entity_code" validate:"required"`
	Term       string    `json:"term" validate:"required,max=2000"`
	CreatedAt  time.Time `json:"created_at"` // UTC
}

func (l *UTMLink) Validate(validate *validator.Validate) error {
	l.EntityType = strings.ToUpper(core.CleanString(l.EntityType))
	l.EntityCode = core.CleanString(l.EntityCode)
	l.Term = core.CleanString(l.Term)
	return validate.Struct(l)
}

func (l UTMLink) IsNational() bool {
	return l.EntityType == EntityNational || l.EntityType == EntityEMT
}

func (l UTMLink) BelongsTo(lc string) bool {
	return l.EntityType == EntityLC && strings.EqualFold(l.EntityCode, lc)
}
