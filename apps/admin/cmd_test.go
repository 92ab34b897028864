package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aiesec-vn/ogvhub/apps/shared"
	"github.com/aiesec-vn/ogvhub/core"
	"github.com/aiesec-vn/ogvhub/core/lead"
	"github.com/aiesec-vn/ogvhub/core/profile"
	"github.com/aiesec-vn/ogvhub/core/refdata"
	"github.com/aiesec-vn/ogvhub/tests"
)

type cliTest struct {
	name       string
	args       []string // without program name
	input      string
	wantErr    error
	wantErrStr string
	wantOut    []string
}

func setup(t *testing.T, raws ...lead.RawRecord) (*commandLine, *shared.Services, *bytes.Buffer) {
	conf := core.NewTestConfig()
	svcs := testutil.NewMemoryServices(conf, nil, raws...)

	out := new(bytes.Buffer)
	cli := newCommandLine(conf, new(sql.DB), svcs, core.NewNopLogger())
	cli.out = out
	cli.in = strings.NewReader("")
	return cli, svcs, out
}

func (tt cliTest) check(t *testing.T, cli *commandLine, out *bytes.Buffer) {
	t.Helper()
	out.Reset()
	cli.in = strings.NewReader(tt.input)

	err := cli.run(tt.args)
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, errors.Cause(err))
	case tt.wantErrStr != "":
		if assert.Error(t, err) {
			assert.Contains(t, err.Error(), tt.wantErrStr)
		}
	default:
		assert.NoError(t, err)
	}
	for _, want := range tt.wantOut {
		assert.Contains(t, out.String(), want)
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _, out := setup(t)

	orig := gooseRunFunc
	t.Cleanup(func() { gooseRunFunc = orig })
	gooseRunFunc = func(command string, db *sql.DB, fsys fs.FS, dir string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to":
			if len(args) == 0 {
				return fmt.Errorf("up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		case "down-to":
			if len(args) == 0 {
				return fmt.Errorf("down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErrStr: "requires at least 1 arg(s)"},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "goals", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli, out)
		})
	}

	t.Run("in-memory engine", func(t *testing.T) {
		cli.db = nil
		defer func() { cli.db = new(sql.DB) }()
		cliTest{args: []string{"migrate", "up"}, wantErr: errNoSQLDatabase}.check(t, cli, out)
	})
}

func Test_commandLine_allocate(t *testing.T) {
	raws := []lead.RawRecord{
		{"id": "1", "timestamp": "2024-05-01T00:00:00Z", "name": "Lan", "uni": "Foreign Trade University"},
		{"id": "2", "timestamp": "2024-05-02T00:00:00Z", "name": "Minh", "uni": "Unknown College"},
		{"id": "3", "timestamp": "2024-05-03T00:00:00Z", "name": "Huy", "uni": "Foreign Trade University", "allocated_lc": lead.RegionHanoi},
	}
	terminal := true
	orig := isTerminalFunc
	isTerminalFunc = func(int) bool { return terminal }
	t.Cleanup(func() { isTerminalFunc = orig })

	tests := []struct {
		cliTest
		terminal bool
		wantLC   map[string]string
	}{
		{cliTest: cliTest{name: "no mode", args: []string{"allocate"}, wantErrStr: "accepts 1 arg(s)"}, terminal: true},
		{cliTest: cliTest{name: "unknown mode", args: []string{"allocate", "lol"}, wantErrStr: "invalid argument \"lol\""}, terminal: true},
		{
			cliTest:  cliTest{name: "dry run", args: []string{"allocate", "auto", "--dry-run"}, wantOut: []string{"Lan", "- -> FTU"}},
			terminal: true,
			wantLC:   map[string]string{"1": ""},
		},
		{
			cliTest:  cliTest{name: "declined", args: []string{"allocate", "auto"}, input: "n\n", wantErr: errAborted},
			terminal: true,
			wantLC:   map[string]string{"1": ""},
		},
		{
			cliTest:  cliTest{name: "no terminal", args: []string{"allocate", "auto"}, wantErr: errNotInteractive},
			terminal: false,
			wantLC:   map[string]string{"1": ""},
		},
		{
			cliTest:  cliTest{name: "confirmed", args: []string{"allocate", "auto"}, input: "yes\n", wantOut: []string{"1 applied, 0 failed"}},
			terminal: true,
			wantLC:   map[string]string{"1": "FTU", "2": ""},
		},
		{
			cliTest:  cliTest{name: "nothing left", args: []string{"allocate", "auto", "--yes"}, wantOut: []string{"nothing to allocate"}},
			terminal: false,
		},
		{
			cliTest:  cliTest{name: "correct", args: []string{"allocate", "correct", "-y"}, wantOut: []string{lead.RegionHanoi + " -> FTU", "1 applied, 0 failed"}},
			terminal: false,
			wantLC:   map[string]string{"3": "FTU"},
		},
	}

	cli, svcs, out := setup(t, raws...)
	ctx := context.Background()
	require.NoError(t, svcs.RefData.UpsertMappings(ctx, refdata.UniversityMapping{UniversityName: "Foreign Trade University", LC: "FTU"}))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			terminal = tt.terminal
			tt.check(t, cli, out)

			for id, want := range tt.wantLC {
				sub, err := svcs.Lead.Get(ctx, id)
				require.NoError(t, err)
				assert.Equal(t, want, core.StringValue(sub.AllocatedLC), "submission %s", id)
			}
		})
	}
}

func Test_commandLine_profileAdd(t *testing.T) {
	cli, svcs, out := setup(t)
	ctx := context.Background()
	gone := testutil.CreateProfile(t, svcs.Profile, "", "gone@aiesec.vn", "Gone", profile.RoleMember, "NEU", false)

	tests := []cliTest{
		{name: "missing flags", args: []string{"profile", "add"}, wantErrStr: "required flag(s)"},
		{name: "lc required", args: []string{"profile", "add", "--email", "a@aiesec.vn", "--name", "A", "--role", "lc_manager"}, wantErrStr: "an LC is required"},
		{name: "bad role", args: []string{"profile", "add", "--email", "a@aiesec.vn", "--name", "A", "--role", "owner"}, wantErrStr: "oneof"},
		{name: "create admin", args: []string{"profile", "add", "--email", "Boss@AIESEC.vn", "--name", "Boss", "--role", "admin"}, wantOut: []string{"created profile", "boss@aiesec.vn"}},
		{name: "reactivate and promote", args: []string{"profile", "add", "--email", "gone@aiesec.vn", "--name", "Back", "--role", "lc_manager", "--lc", "FTU"}, wantOut: []string{"updated profile " + gone.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli, out)
		})
	}

	boss, err := svcs.Profile.GetByEmail(ctx, "boss@aiesec.vn")
	require.NoError(t, err)
	assert.True(t, boss.IsAdmin())
	assert.True(t, boss.IsActive)

	back, err := svcs.Profile.Get(ctx, gone.ID)
	require.NoError(t, err)
	assert.True(t, back.IsActive)
	assert.Equal(t, "Back", back.FullName)
	assert.Equal(t, profile.RoleLCManager, back.Role)
	assert.Equal(t, "FTU", core.StringValue(back.LC))
}

func Test_commandLine_suggest(t *testing.T) {
	cli, svcs, out := setup(t,
		lead.RawRecord{"id": "1", "timestamp": "2024-05-01T00:00:00Z", "name": "Lan", "uni": "Foreign Trade Univ"},
		lead.RawRecord{"id": "2", "timestamp": "2024-05-02T00:00:00Z", "name": "Minh", "uni": "Foreign Trade Univ"},
	)

	cliTest{name: "nothing mapped", args: []string{"suggest"}, wantOut: []string{`"Foreign Trade Univ" (2)`}}.check(t, cli, out)

	require.NoError(t, svcs.RefData.UpsertMappings(context.Background(), refdata.UniversityMapping{UniversityName: "Foreign Trade University", LC: "FTU"}))
	cliTest{name: "with suggestion", args: []string{"suggest", "--limit", "1"}, wantOut: []string{"Foreign Trade University", "FTU"}}.check(t, cli, out)
}
