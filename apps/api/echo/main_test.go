package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	. "github.com/aiesec-vn/ogvhub/apps/api/echo"
	"github.com/aiesec-vn/ogvhub/core"
	"github.com/aiesec-vn/ogvhub/core/funnel"
	"github.com/aiesec-vn/ogvhub/core/lead"
	"github.com/aiesec-vn/ogvhub/core/profile"
	"github.com/aiesec-vn/ogvhub/core/refdata"
	"github.com/aiesec-vn/ogvhub/core/report"
	inmemdb "github.com/aiesec-vn/ogvhub/storage/database/inmem"
	"github.com/aiesec-vn/ogvhub/tests"
)

type fixture struct {
	app      *Server
	conf     *core.Config
	leadRepo interface{ AllocationLogs() []lead.AllocationLog }

	admin    profile.Profile
	manager  profile.Profile // FTU
	member   profile.Profile // NEU
	inactive profile.Profile
}

func setup(t *testing.T) *fixture {
	ctx := context.Background()
	conf := core.NewTestConfig()
	logger := core.NewNopLogger()
	validate, translator := core.NewValidator()

	db := inmemdb.Open()
	leadRepo := inmemdb.NewLeadRepository(db)
	leadRepo.InsertSubmissions(
		lead.RawRecord{"id": "s1", "timestamp": "2024-05-01T00:00:00Z", "name": "Lan", "uni": "FTU", "allocated_lc": "FTU", "year_of_study": "2nd year"},
		lead.RawRecord{"id": "s2", "timestamp": "2024-05-02T00:00:00Z", "name": "Minh", "uni": "NEU", "allocated_lc": "NEU", "year_of_study": "3rd year"},
		lead.RawRecord{"id": "s3", "timestamp": "2024-05-03T00:00:00Z", "name": "Huy", "uni": "Hanoi - FPT"},
	)

	refSvc := refdata.NewService(inmemdb.NewRefdataRepository(db), core.NewMemoryCache(), logger, conf)
	require.NoError(t, refSvc.UpsertMappings(ctx, refdata.UniversityMapping{UniversityName: "Hanoi - FPT", LC: "FTU"}))
	require.NoError(t, refSvc.UpsertPhase(ctx, refdata.Phase{
		Code:      "S24",
		Name:      "Summer 2024",
		StartDate: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
	}))

	profileSvc := profile.NewService(inmemdb.NewProfileRepository(db), logger)
	leadSvc := lead.NewService(leadRepo, refSvc, nil, logger, conf)

	f := &fixture{conf: conf, leadRepo: leadRepo}
	f.admin = testutil.CreateProfile(t, profileSvc, "admin-id", "admin@aiesec.vn", "Admin", profile.RoleAdmin, "", true)
	f.manager = testutil.CreateProfile(t, profileSvc, "ftu-id", "ftu@aiesec.vn", "FTU Manager", profile.RoleLCManager, "FTU", true)
	f.member = testutil.CreateProfile(t, profileSvc, "neu-id", "neu@aiesec.vn", "NEU Member", profile.RoleMember, "NEU", true)
	f.inactive = testutil.CreateProfile(t, profileSvc, "gone-id", "gone@aiesec.vn", "Gone", profile.RoleMember, "NEU", false)

	f.app = NewServer(ServerDeps{
		Conf:           conf,
		Logger:         logger,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
		LeadSvc:        leadSvc,
		FunnelSvc:      funnel.NewService(inmemdb.NewFunnelRepository(db), leadSvc, logger),
		ReportSvc:      report.NewService(leadSvc, refSvc, logger),
		RefSvc:         refSvc,
		ProfileSvc:     profileSvc,
	})
	t.Cleanup(func() { _ = f.app.Close() })
	return f
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func (f *fixture) token(t *testing.T, p profile.Profile) string {
	token, err := GenerateToken(NewClaims(p, f.conf, time.Hour), f.conf)
	if err != nil {
		t.Fatalf("token() failed: %v", err)
	}
	return token
}

func (f *fixture) do(method, path, token string, data ...[]byte) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.app.ServeHTTP(rec, req)
	return rec
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj() failed: %v", err)
	}
	return data
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode(%s) failed: %v", rec.Body.String(), err)
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func (f *fixture) run(t *testing.T, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(tt.method, tt.path, tt.token, tt.body)
			checkCodeAndData(t, tt, rec)
		})
	}
}
