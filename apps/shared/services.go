// Package shared wires the stores and services used by both the API and the admin CLI.
package shared

import (
	"context"
	"fmt"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/aiesec-vn/ogvhub/core"
	"github.com/aiesec-vn/ogvhub/core/funnel"
	"github.com/aiesec-vn/ogvhub/core/lead"
	"github.com/aiesec-vn/ogvhub/core/profile"
	"github.com/aiesec-vn/ogvhub/core/refdata"
	"github.com/aiesec-vn/ogvhub/core/report"
	appfs "github.com/aiesec-vn/ogvhub/fs"
	cachesvc "github.com/aiesec-vn/ogvhub/services/cache"
	emailsvc "github.com/aiesec-vn/ogvhub/services/email"
	logsvc "github.com/aiesec-vn/ogvhub/services/logger"
	"github.com/aiesec-vn/ogvhub/storage/database"
	inmemdb "github.com/aiesec-vn/ogvhub/storage/database/inmem"
	"github.com/aiesec-vn/ogvhub/storage/database/sqlxrepos"
)

const EngineMemory = "memory"

type (
	Repositories struct {
		Lead    lead.Repository
		Funnel  funnel.Repository
		RefData refdata.Repository
		Profile profile.Repository
	}

	Services struct {
		Validate   *validator.Validate
		Translator ut.Translator

		Lead    *lead.Service
		Funnel  *funnel.Service
		Report  *report.Service
		RefData *refdata.Service
		Profile *profile.Service
	}
)

func SQLRepositories(db *sqlx.DB) Repositories {
	return Repositories{
		Lead:    sqlxrepos.NewLeadRepository(db),
		Funnel:  sqlxrepos.NewFunnelRepository(db),
		RefData: sqlxrepos.NewRefdataRepository(db),
		Profile: sqlxrepos.NewProfileRepository(db),
	}
}

func MemoryRepositories(db *inmemdb.DB) Repositories {
	return Repositories{
		Lead:    inmemdb.NewLeadRepository(db),
		Funnel:  inmemdb.NewFunnelRepository(db),
		RefData: inmemdb.NewRefdataRepository(db),
		Profile: inmemdb.NewProfileRepository(db),
	}
}

// NewLogger returns a named logger; the returned func flushes it.
func NewLogger(name string, conf *core.Config) (*logsvc.RollbarLogger, func(), error) {
	zl, err := logsvc.NewZap(name, conf)
	if err != nil {
		return nil, nil, errors.Wrap(err, "building zap logger")
	}
	logger := logsvc.NewRollbarLogger(zl, conf)
	return logger, logger.Sync, nil
}

// OpenRepositories opens the configured store. For postgres the database is created
// if needed and migrated up. The returned func releases the store.
func OpenRepositories(ctx context.Context, conf *core.Config, dbLogger core.Logger) (Repositories, func(), error) {
	if conf.Database.Engine == EngineMemory {
		dbLogger.Warn("using the in-memory store: data is lost on exit")
		return MemoryRepositories(inmemdb.Open()), func() {}, nil
	}

	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		return Repositories{}, nil, errors.Wrap(err, "creating database")
	}
	db, err := database.Open(conf)
	if err != nil {
		return Repositories{}, nil, errors.Wrap(err, "opening database")
	}
	if err = database.Migrate(db.DB, "up"); err != nil {
		_ = db.Close()
		return Repositories{}, nil, errors.Wrap(err, "migrating database")
	}
	closeFn := func() {
		if err := db.Close(); err != nil {
			dbLogger.Error(fmt.Sprintf("closing database: %v", err), err)
		}
	}
	return SQLRepositories(db), closeFn, nil
}

// NewCache returns the configured reference-data cache.
func NewCache(ctx context.Context, conf *core.Config) (core.Cache, func(), error) {
	if conf.Cache.Driver != "redis" {
		return core.NewMemoryCache(), func() {}, nil
	}
	rc, err := cachesvc.NewRedisCache(ctx, conf)
	if err != nil {
		return nil, nil, err
	}
	return rc, func() { _ = rc.Close() }, nil
}

// NewEmailService prints emails in debug and test mode and sends them through SendGrid otherwise.
func NewEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, conf, logger)
	if conf.Debug || conf.TestMode || conf.SendgridAPIKey == "" {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func NewServices(repos Repositories, cache core.Cache, mailSvc core.EmailService, logger core.Logger, conf *core.Config) *Services {
	validate, translator := core.NewValidator()

	refSvc := refdata.NewService(repos.RefData, cache, logger, conf)
	profileSvc := profile.NewService(repos.Profile, logger)

	var notifier lead.Notifier
	if mailSvc != nil {
		notifier = lead.NewDigestNotifier(profileSvc, mailSvc, logger)
	}
	leadSvc := lead.NewService(repos.Lead, refSvc, notifier, logger, conf)

	return &Services{
		Validate:   validate,
		Translator: translator,
		Lead:       leadSvc,
		Funnel:     funnel.NewService(repos.Funnel, leadSvc, logger),
		Report:     report.NewService(leadSvc, refSvc, logger),
		RefData:    refSvc,
		Profile:    profileSvc,
	}
}
