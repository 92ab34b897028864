package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/aiesec-vn/ogvhub/apps/shared"
	"github.com/aiesec-vn/ogvhub/core"
	"github.com/aiesec-vn/ogvhub/storage/database"
	inmemdb "github.com/aiesec-vn/ogvhub/storage/database/inmem"
)

func main() {
	conf := core.NewConfig()

	logger, syncLogger, err := shared.NewLogger("ADMIN", conf)
	if err != nil {
		log.Fatalf("setting up logger: %v", err)
	}

	// set up DB; migrations are never applied implicitly here
	var (
		db    *sql.DB
		repos shared.Repositories
	)
	if conf.Database.Engine == shared.EngineMemory {
		repos = shared.MemoryRepositories(inmemdb.Open())
	} else {
		sqlxDB, err := database.Open(conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
		}
		db = sqlxDB.DB
		repos = shared.SQLRepositories(sqlxDB)
	}

	mailSvc := shared.NewEmailService(conf, logger)
	svcs := shared.NewServices(repos, core.NewMemoryCache(), mailSvc, logger, conf)

	// start CLI
	cli := newCommandLine(conf, db, svcs, logger)
	err = cli.run(os.Args[1:])

	syncLogger()
	if db != nil {
		_ = db.Close()
	}
	if err != nil {
		os.Exit(1)
	}
}
