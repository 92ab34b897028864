package testutil

import (
	"context"
	"testing"

	"github.com/aiesec-vn/ogvhub/apps/shared"
	"github.com/aiesec-vn/ogvhub/core"
	"github.com/aiesec-vn/ogvhub/core/lead"
	"github.com/aiesec-vn/ogvhub/core/profile"
	inmemdb "github.com/aiesec-vn/ogvhub/storage/database/inmem"
)

// adminActor may deactivate any profile.
var adminActor = profile.Profile{ID: "testutil", Role: profile.RoleAdmin}

// NewMemoryServices wires every service over a fresh in-memory store seeded with raws.
// mailSvc may be nil to disable allocation digests.
func NewMemoryServices(conf *core.Config, mailSvc core.EmailService, raws ...lead.RawRecord) *shared.Services {
	db := inmemdb.Open()
	inmemdb.NewLeadRepository(db).InsertSubmissions(raws...)
	return shared.NewServices(shared.MemoryRepositories(db), core.NewMemoryCache(), mailSvc, core.NewNopLogger(), conf)
}

func CreateProfile(
	t *testing.T,
	svc *profile.Service,
	id, email, name, role, lc string,
	isActive bool,
) profile.Profile {
	np := profile.NewProfile{ID: id, Email: email, FullName: name, Role: role}
	if lc != "" {
		np.LC = core.StringPtr(lc)
	}
	ctx := context.Background()
	p, err := svc.Create(ctx, np)
	if err != nil {
		t.Fatalf("CreateProfile() failed: %v", err)
	}
	if !isActive {
		if p, err = svc.SetActive(ctx, p.ID, false, adminActor); err != nil {
			t.Fatalf("CreateProfile() failed: %v", err)
		}
	}
	return p
}
