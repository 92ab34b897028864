package refdata

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/aiesec-vn/ogvhub/core"
	"github.com/aiesec-vn/ogvhub/core/lead"
)

const (
	keyMapping  = "refdata:university_mapping"
	keyPhases   = "refdata:phases"
	keyGoals    = "refdata:goals"
	keyUTMLinks = "refdata:utm_links"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound = errors.New("not found")
)

type (
	Repository interface {
		QueryMappings(ctx context.Context) ([]UniversityMapping, error)
		UpsertMappings(ctx context.Context, ms ...UniversityMapping) error
		QueryPhases(ctx context.Context) ([]Phase, error)
		UpsertPhase(ctx context.Context, p Phase) error
		QueryGoals(ctx context.Context) ([]Goal, error)
		UpsertGoals(ctx context.Context, gs ...Goal) error
		QueryUTMLinks(ctx context.Context) ([]UTMLink, error)
		CreateUTMLink(ctx context.Context, l UTMLink) error
		DeleteUTMLink(ctx context.Context, id string) error
	}

	// Service serves slowly-changing reference data through its own cache.
	// Every write it performs invalidates the affected entries.
	Service struct {
		repo   Repository
		cache  core.Cache
		ttl    time.Duration
		logger core.Logger
	}
)

var _ lead.MappingSource = (*Service)(nil)

func NewService(repo Repository, cache core.Cache, logger core.Logger, conf *core.Config) *Service {
	return &Service{repo: repo, cache: cache, ttl: conf.Cache.TTL, logger: logger}
}

// cache failures degrade to a store read; they are never fatal
func (svc *Service) fromCache(ctx context.Context, key string, dst interface{}) bool {
	found, err := svc.cache.Get(ctx, key, dst)
	if err != nil {
		svc.logger.Warn("reading cache "+key, err)
		return false
	}
	return found
}

func (svc *Service) toCache(ctx context.Context, key string, val interface{}) {
	if err := svc.cache.Set(ctx, key, val, svc.ttl); err != nil {
		svc.logger.Warn("writing cache "+key, err)
	}
}

func (svc *Service) invalidate(ctx context.Context, keys ...string) {
	if err := svc.cache.Invalidate(ctx, keys...); err != nil {
		svc.logger.Warn("invalidating cache", err, map[string]interface{}{"keys": keys})
	}
}

// Refresh drops every cached entry.
func (svc *Service) Refresh(ctx context.Context) {
	svc.invalidate(ctx, keyMapping, keyPhases, keyGoals, keyUTMLinks)
}

// University mapping

func (svc *Service) Mapping(ctx context.Context) (lead.Mapping, error) {
	var m lead.Mapping
	if svc.fromCache(ctx, keyMapping, &m) {
		return m, nil
	}
	rows, err := svc.repo.QueryMappings(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying university mapping")
	}
	m = make(lead.Mapping, len(rows))
	for _, r := range rows {
		m[r.UniversityName] = r.LC
	}
	svc.toCache(ctx, keyMapping, m)
	return m, nil
}

func (svc *Service) Mappings(ctx context.Context) ([]UniversityMapping, error) {
	m, err := svc.Mapping(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]UniversityMapping, 0, len(m))
	for name, lc := range m {
		rows = append(rows, UniversityMapping{UniversityName: name, LC: lc})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].UniversityName < rows[j].UniversityName })
	return rows, nil
}

func (svc *Service) UpsertMappings(ctx context.Context, ms ...UniversityMapping) error {
	if err := svc.repo.UpsertMappings(ctx, ms...); err != nil {
		return errors.Wrap(err, "upserting university mapping")
	}
	svc.invalidate(ctx, keyMapping)
	return nil
}

// Phases

func (svc *Service) Phases(ctx context.Context) ([]Phase, error) {
	var phases []Phase
	if svc.fromCache(ctx, keyPhases, &phases) {
		return phases, nil
	}
	phases, err := svc.repo.QueryPhases(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying phases")
	}
	sort.Slice(phases, func(i, j int) bool { return phases[i].StartDate.Before(phases[j].StartDate) })
	svc.toCache(ctx, keyPhases, phases)
	return phases, nil
}

func (svc *Service) Phase(ctx context.Context, code string) (Phase, error) {
	phases, err := svc.Phases(ctx)
	if err != nil {
		return Phase{}, err
	}
	for _, p := range phases {
		if p.Code == code {
			return p, nil
		}
	}
	return Phase{}, errors.Wrapf(ErrNotFound, "phase %q", code)
}

// CurrentPhase returns the phase containing `now`, if any.
func (svc *Service) CurrentPhase(ctx context.Context, now time.Time) (Phase, error) {
	phases, err := svc.Phases(ctx)
	if err != nil {
		return Phase{}, err
	}
	for _, p := range phases {
		if p.Contains(now) {
			return p, nil
		}
	}
	return Phase{}, errors.Wrap(ErrNotFound, "current phase")
}

func (svc *Service) UpsertPhase(ctx context.Context, p Phase) error {
	if err := svc.repo.UpsertPhase(ctx, p); err != nil {
		return errors.Wrap(err, "upserting phase")
	}
	svc.invalidate(ctx, keyPhases)
	return nil
}

// Goals

func (svc *Service) Goals(ctx context.Context) ([]Goal, error) {
	var goals []Goal
	if svc.fromCache(ctx, keyGoals, &goals) {
		return goals, nil
	}
	goals, err := svc.repo.QueryGoals(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying goals")
	}
	svc.toCache(ctx, keyGoals, goals)
	return goals, nil
}

// PhaseGoals returns the goals of a phase, sorted by LC.
func (svc *Service) PhaseGoals(ctx context.Context, phaseCode string) ([]Goal, error) {
	goals, err := svc.Goals(ctx)
	if err != nil {
		return nil, err
	}
	return FilterGoals(goals, phaseCode), nil
}

func FilterGoals(goals []Goal, phaseCode string) []Goal {
	out := make([]Goal, 0)
	for _, g := range goals {
		if g.PhaseCode == phaseCode {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LC < out[j].LC })
	return out
}

func (svc *Service) UpsertGoals(ctx context.Context, gs ...Goal) error {
	if err := svc.repo.UpsertGoals(ctx, gs...); err != nil {
		return errors.Wrap(err, "upserting goals")
	}
	svc.invalidate(ctx, keyGoals)
	return nil
}

// UTM links

func (svc *Service) UTMLinks(ctx context.Context) ([]UTMLink, error) {
	var links []UTMLink
	if svc.fromCache(ctx, keyUTMLinks, &links) {
		return links, nil
	}
	links, err := svc.repo.QueryUTMLinks(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying utm links")
	}
	svc.toCache(ctx, keyUTMLinks, links)
	return links, nil
}

func (svc *Service) CreateUTMLink(ctx context.Context, l UTMLink) (UTMLink, error) {
	l.ID = uuid.New().String()
	l.CreatedAt = NowFunc().UTC()
	if err := svc.repo.CreateUTMLink(ctx, l); err != nil {
		return UTMLink{}, errors.Wrap(err, "creating utm link")
	}
	svc.invalidate(ctx, keyUTMLinks)
	return l, nil
}

func (svc *Service) DeleteUTMLink(ctx context.Context, id string) error {
	if err := svc.repo.DeleteUTMLink(ctx, id); err != nil {
		return errors.Wrap(err, "deleting utm link")
	}
	svc.invalidate(ctx, keyUTMLinks)
	return nil
}
