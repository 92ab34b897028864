package profile

import (
	"net/mail"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/aiesec-vn/ogvhub/core"
)

// Roles
const (
	RoleAdmin     = "admin"
	RoleLCManager = "lc_manager"
	RoleMember    = "member"
)

var (
	AllRoles = []string{RoleAdmin, RoleLCManager, RoleMember}

	rolePriorities = map[string]int{
		RoleAdmin:     30,
		RoleLCManager: 20,
		RoleMember:    10,
	}

	Roles = []Role{
		{Name: "Member", Value: RoleMember},
		{Name: "LC Manager", Value: RoleLCManager},
		{Name: "Admin", Value: RoleAdmin},
	}

	errLCRequired = errors.New("an LC is required for this role")
)

func RolePriority(role string) int {
	return rolePriorities[role]
}

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Profile is a dashboard user. ID is the identity provider's subject.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	LC        *string   `json:"lc"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

func (p Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// Scope is the LC the profile is restricted to; empty for admins.
func (p Profile) Scope() string {
	if p.IsAdmin() {
		return ""
	}
	return core.StringValue(p.LC)
}

func (p Profile) Actor() core.Actor {
	return core.Actor{ID: p.ID, Email: p.Email, Name: p.FullName}
}

func (p Profile) Address() mail.Address {
	return mail.Address{Name: p.FullName, Address: p.Email}
}

func checkRoleLC(role string, lc *string) error {
	if role != RoleAdmin && core.StringValue(lc) == "" {
		return core.NewValidationError(errLCRequired, core.FieldError{Field: "lc", Error: errLCRequired.Error()})
	}
	return nil
}

func cleanLC(lc *string) *string {
	if lc == nil {
		return nil
	}
	if v := core.CleanString(*lc); v != "" {
		return &v
	}
	return nil
}

// NewProfile contains information needed to create a new Profile.
type NewProfile struct {
	ID       string  `json:"id" validate:"omitempty,uuid"`
	Email    string  `json:"email" validate:"required,email"`
	FullName string  `json:"full_name" validate:"required,max=200"`
	Role     string  `json:"role" validate:"required,oneof=admin lc_manager member"`
	LC       *string `json:"lc" validate:"omitempty,lccode"`
}

func (np *NewProfile) Validate(validate *validator.Validate) error {
	np.ID = core.CleanString(np.ID, true /* lower */)
	np.Email = core.CleanString(np.Email, true /* lower */)
	np.FullName = core.CleanString(np.FullName)
	np.Role = core.CleanString(np.Role, true /* lower */)
	np.LC = cleanLC(np.LC)

	if err := validate.Struct(np); err != nil {
		return err
	}
	return checkRoleLC(np.Role, np.LC)
}

// UpdateProfile defines what may be changed on an existing Profile. Empty fields keep their value.
type UpdateProfile struct {
	FullName string  `json:"full_name" validate:"omitempty,max=200"`
	Role     string  `json:"role" validate:"omitempty,oneof=admin lc_manager member"`
	LC       *string `json:"lc" validate:"omitempty,lccode"`
	IsActive *bool   `json:"is_active"`
}

func (up *UpdateProfile) Validate(orig Profile, validate *validator.Validate) error {
	if name := core.CleanString(up.FullName); name != "" {
		up.FullName = name
	} else {
		up.FullName = orig.FullName
	}
	if role := core.CleanString(up.Role, true /* lower */); role != "" {
		up.Role = role
	} else {
		up.Role = orig.Role
	}
	if up.LC != nil {
		up.LC = cleanLC(up.LC)
	} else {
		up.LC = orig.LC
	}

	if err := validate.Struct(up); err != nil {
		return err
	}
	return checkRoleLC(up.Role, up.LC)
}

type QueryFilter struct {
	Search   string `query:"search"`
	Role     string `query:"role"`
	LC       string `query:"lc"`
	IsActive *bool  `query:"is_active"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Role = core.CleanString(qf.Role, true /* lower */)
	qf.LC = core.CleanString(qf.LC)
}

func (qf QueryFilter) Matches(p Profile) bool {
	if qf.Role != "" && p.Role != qf.Role {
		return false
	}
	if qf.LC != "" && !strings.EqualFold(core.StringValue(p.LC), qf.LC) {
		return false
	}
	if qf.IsActive != nil && p.IsActive != *qf.IsActive {
		return false
	}
	if qf.Search != "" {
		needle := strings.ToLower(qf.Search)
		return strings.Contains(strings.ToLower(p.FullName), needle) || strings.Contains(p.Email, needle)
	}
	return true
}
