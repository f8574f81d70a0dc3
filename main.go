package main

import (
	"log"
	"net/http"
	"time"

	"launchpad/account"
	"launchpad/bizerror"
	"launchpad/client/s3"
	_ "launchpad/common"
	"launchpad/domain/launch"
	"launchpad/domain/launch/launchrest"
	"launchpad/domain/message"
	"launchpad/domain/moderation"
	"launchpad/domain/proposal"
	"launchpad/es"
	"launchpad/event"
	"launchpad/flags"
	"launchpad/indices"
	"launchpad/infra/tracing"
	"launchpad/persistence"
	"launchpad/session"
	"launchpad/sessions"

	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("service start")

	tracingCloser, err := tracing.Bootstrap()
	if err != nil {
		log.Fatalf("tracing bootstrap failed %v\n", err)
	}
	defer tracingCloser.Close()

	dbConfig, err := persistence.ParseDatabaseConfigFromEnv()
	if err != nil {
		log.Fatalf("parse database config failed %v\n", err)
	}

	// create database (no conflict)
	if dbConfig.DriverType == "mysql" {
		if err := persistence.PrepareMysqlDatabase(dbConfig.DriverArgs); err != nil {
			log.Fatalf("failed to prepare database %v\n", err)
		}
	}

	// connect database
	ds := &persistence.DataSourceManager{DatabaseConfig: dbConfig}
	if err := ds.Start(); err != nil {
		log.Fatalf("database connection failed %v\n", err)
	}
	defer ds.Stop()
	persistence.ActiveDataSourceManager = ds

	// database migration (race condition)
	err = ds.GormDB(nil).AutoMigrate(
		&account.User{}, &account.DeveloperProfile{},
		&launch.Launch{}, &proposal.Proposal{},
		&message.Conversation{}, &message.Message{},
		&flags.FeatureFlag{}, &event.EventRecord{},
	).Error
	if err != nil {
		log.Fatalf("database migration failed %v\n", err)
	}

	s3.Bootstrap()
	flags.Active = flags.NewFlagService(time.Minute)

	if es.Enabled() {
		indices.BootstrapLaunchIndexEventHandler()
	}

	engine := gin.Default()
	engine.Use(tracing.TracingIngress(), bizerror.ErrorHandling())
	engine.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "launchpad")
	})

	sessions.RegisterSessionsHandler(engine)
	account.RegisterUsersRestAPI(engine, session.SimpleAuthFilter())
	launchrest.RegisterLaunchesRestAPI(engine, session.SimpleAuthFilter())
	moderation.RegisterModerationRestAPI(engine, session.SimpleAuthFilter())
	proposal.RegisterProposalsRestAPI(engine, session.SimpleAuthFilter())
	message.RegisterMessagesRestAPI(engine, session.SimpleAuthFilter())
	flags.RegisterFlagsRestAPI(engine, session.SimpleAuthFilter())
	indices.RegisterIndicesRestAPI(engine, session.SimpleAuthFilter())

	err = engine.Run(":80")
	if err != nil {
		panic(err)
	}
}
