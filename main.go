package main

import (
	"log"
	"net/http"

	"appbase/account"
	"appbase/attachment"
	"appbase/bizerror"
	"appbase/client/es"
	"appbase/client/s3"
	"appbase/domain/apps"
	"appbase/domain/fields"
	"appbase/domain/organization"
	"appbase/domain/records"
	"appbase/event"
	"appbase/indices"
	"appbase/indices/search"
	"appbase/infra/tracing"
	"appbase/notification"
	"appbase/persistence"
	"appbase/servehttp"
	"appbase/session"

	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("service start")

	tracingCloser := tracing.Bootstrap()
	if tracingCloser != nil {
		defer tracingCloser.Close()
	}

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
		log.Fatalf("database conneciton failed %v\n", err)
	}
	defer ds.Stop()
	persistence.ActiveDataSourceManager = ds

	// database migration (race condition)
	err = ds.GormDB().AutoMigrate(
		&account.User{},
		&organization.Department{},
		&organization.JobTitle{},
		&apps.App{},
		&fields.Field{},
		&records.Record{},
		&notification.Notification{},
		&attachment.Attachment{},
		&event.EventRecord{},
	).Error
	if err != nil {
		log.Fatalf("database migration failed %v\n", err)
	}

	es.CreateClientFromEnv()
	s3.Bootstrap()

	apps.AppDeleteCheckFuncs = append(apps.AppDeleteCheckFuncs, records.IsAppReferencedByRecord)
	event.EventHandlers = append(event.EventHandlers, indices.IndexRecordEventHandle)
	indices.StartCron()

	engine := gin.Default()
	engine.Use(bizerror.ErrorHandling(), tracing.TracingIngress())
	engine.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "appbase")
	})

	authFilter := session.SimpleAuthFilter()
	account.RegisterSessionsRestAPI(engine)
	account.RegisterUsersRestAPI(engine, authFilter)
	apps.RegisterAppsRestAPI(engine, authFilter)
	fields.RegisterFieldsRestAPI(engine, authFilter)
	records.RegisterRecordsRestAPI(engine, authFilter)
	organization.RegisterOrganizationRestAPI(engine, authFilter)
	notification.RegisterNotificationsRestAPI(engine, authFilter)
	attachment.RegisterFilesRestAPI(engine, authFilter)
	indices.RegisterIndicesRestAPI(engine, authFilter)
	search.RegisterRecordSearchRestAPI(engine, authFilter)

	servehttp.StartHTTPServer(engine)
}
