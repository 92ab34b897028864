package profile

import (
	"context"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/aiesec-vn/ogvhub/core"
	"github.com/aiesec-vn/ogvhub/core/lead"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound    = errors.New("profile not found")
	ErrEmailExists = errors.New("a profile with this email already exists")
	ErrForbidden   = errors.New("not allowed to grant or change this role")
)

type (
	Repository interface {
		CreateProfile(ctx context.Context, p Profile) (Profile, error)
		// QueryProfiles applies AND on the set QueryFilter fields. Search is a
		// case-insensitive match on FullName or Email.
		QueryProfiles(ctx context.Context, filter QueryFilter) ([]Profile, error)
		GetProfileByID(ctx context.Context, id string) (Profile, error)
		GetProfileByEmail(ctx context.Context, email string) (Profile, error)
		UpdateProfile(ctx context.Context, p Profile) (Profile, error)
	}

	Service struct {
		repo   Repository
		logger core.Logger
	}
)

var _ lead.RecipientSource = (*Service)(nil)

func NewService(repo Repository, logger core.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (svc *Service) Get(ctx context.Context, id string) (Profile, error) {
	return svc.repo.GetProfileByID(ctx, core.CleanString(id, true /* lower */))
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (Profile, error) {
	return svc.repo.GetProfileByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Profile, error) {
	filter.Clean()
	return svc.repo.QueryProfiles(ctx, filter)
}

func (svc *Service) checkEmail(ctx context.Context, email, exclID string) error {
	p, err := svc.repo.GetProfileByEmail(ctx, email)
	switch {
	case errors.Cause(err) == ErrNotFound:
		return nil
	case err != nil:
		return err
	case p.ID == exclID:
		return nil
	}
	return core.NewValidationError(ErrEmailExists, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
}

// Create registers a profile. np must have been validated.
func (svc *Service) Create(ctx context.Context, np NewProfile) (Profile, error) {
	if err := svc.checkEmail(ctx, np.Email, ""); err != nil {
		return Profile{}, err
	}
	id := np.ID
	if id == "" {
		id = uuid.New().String()
	}
	now := NowFunc().UTC()
	return svc.repo.CreateProfile(ctx, Profile{
		ID:        id,
		Email:     np.Email,
		FullName:  np.FullName,
		Role:      np.Role,
		LC:        np.LC,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// Update applies up, validated against the current profile. The actor can neither
// touch a profile that outranks them nor grant a role above their own.
func (svc *Service) Update(ctx context.Context, id string, up UpdateProfile, actor Profile) (Profile, error) {
	p, err := svc.Get(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	actorPrio := RolePriority(actor.Role)
	if RolePriority(p.Role) > actorPrio || RolePriority(up.Role) > actorPrio {
		return Profile{}, ErrForbidden
	}

	p.FullName = up.FullName
	p.Role = up.Role
	p.LC = up.LC
	if up.IsActive != nil {
		p.IsActive = *up.IsActive
	}
	p.UpdatedAt = NowFunc().UTC()
	return svc.repo.UpdateProfile(ctx, p)
}

func (svc *Service) SetActive(ctx context.Context, id string, active bool, actor Profile) (Profile, error) {
	p, err := svc.Get(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	if RolePriority(p.Role) > RolePriority(actor.Role) {
		return Profile{}, ErrForbidden
	}
	p.IsActive = active
	p.UpdatedAt = NowFunc().UTC()
	return svc.repo.UpdateProfile(ctx, p)
}

// LCRecipients lists the active LC managers of lc.
func (svc *Service) LCRecipients(ctx context.Context, lc string) ([]mail.Address, error) {
	active := true
	ps, err := svc.repo.QueryProfiles(ctx, QueryFilter{Role: RoleLCManager, LC: lc, IsActive: &active})
	if err != nil {
		return nil, errors.Wrap(err, "querying lc managers")
	}
	addrs := make([]mail.Address, 0, len(ps))
	for _, p := range ps {
		addrs = append(addrs, p.Address())
	}
	return addrs, nil
}
