package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"

	echoapi "github.com/aiesec-vn/ogvhub/apps/api/echo"
	"github.com/aiesec-vn/ogvhub/apps/shared"
	"github.com/aiesec-vn/ogvhub/core"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()
	ctx := context.Background()

	// set up loggers
	logger, syncLogger, err := shared.NewLogger("API", conf)
	if err != nil {
		log.Fatalf("setting up logger: %v", err)
	}
	defer syncLogger()

	dbLogger, syncDBLogger, err := shared.NewLogger("DB", conf)
	if err != nil {
		log.Fatalf("setting up db logger: %v", err)
	}
	defer syncDBLogger()

	// set up DB
	repos, closeDB, err := shared.OpenRepositories(ctx, conf, dbLogger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer closeDB()

	// set up cache & services
	cache, closeCache, err := shared.NewCache(ctx, conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up cache: %v", err), err)
	}
	defer closeCache()

	mailSvc := shared.NewEmailService(conf, logger)
	svcs := shared.NewServices(repos, cache, mailSvc, logger, conf)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : %s", conf))
	defer logger.Info("Application stopped")

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:       conf,
			Logger:     logger,
			Validate:   svcs.Validate,
			Translator: svcs.Translator,
			LeadSvc:    svcs.Lead,
			FunnelSvc:  svcs.Funnel,
			ReportSvc:  svcs.Report,
			RefSvc:     svcs.RefData,
			ProfileSvc: svcs.Profile,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Error(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(ctx, conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}
