package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ray-remotestate/restro/config"
	"github.com/ray-remotestate/restro/database"
	"github.com/ray-remotestate/restro/database/dbhelper"
	"github.com/ray-remotestate/restro/events"
	"github.com/ray-remotestate/restro/graph"
	"github.com/ray-remotestate/restro/metrics"
	"github.com/ray-remotestate/restro/models"
	"github.com/ray-remotestate/restro/orders"
	"github.com/ray-remotestate/restro/server"
	"github.com/ray-remotestate/restro/utils"
)

const shutdownTimeOut = 10 * time.Second

func main() {
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	cfg, err := config.Load()
	if err != nil {
		logrus.Panicf("failed to load config, error: %v", err)
	}
	cfg.SetupLogger()

	db, err := database.ConnectAndMigrate(database.Config{
		Driver:       cfg.DBDriver,
		Path:         cfg.DBPath,
		URL:          cfg.DatabaseURL,
		BusyTimeout:  time.Duration(cfg.DBBusyTimeoutMS) * time.Millisecond,
		OpenAttempts: cfg.DBOpenAttempts,
	})
	if err != nil {
		logrus.Panicf("failed to initialize database, error: %v", err)
	}
	logrus.Println("migration is successful")

	if err := seedAdmin(context.Background(), db, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		logrus.Panicf("failed to seed admin, error: %v", err)
	}

	policy, err := models.PolicyByName(cfg.OrderTransitions)
	if err != nil {
		logrus.Panicf("invalid ORDER_TRANSITIONS, error: %v", err)
	}

	var publisher events.Publisher = events.LogPublisher{}
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		kafka, err := events.NewKafkaPublisher(brokers, cfg.KafkaTopic)
		if err != nil {
			logrus.WithError(err).Warn("kafka unavailable, status events will only be logged")
		} else {
			publisher = kafka
		}
	}

	m := metrics.New()
	svc := orders.NewService(db,
		orders.WithPolicy(policy),
		orders.WithPublisher(publisher),
		orders.WithMetrics(m),
	)
	resolver := graph.NewResolver(svc, db, []byte(cfg.SecretKey), graph.WithRequireAuth(cfg.RequireAuth))

	srv := server.SetupRoutes(server.Deps{
		DB:      db,
		Schema:  graph.NewSchema(resolver),
		Metrics: m,
		Secret:  []byte(cfg.SecretKey),
	})
	ln, err := srv.Listen(":" + cfg.Port)
	if err != nil {
		logrus.Panicf("failed to bind :%s, error: %v", cfg.Port, err)
	}
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			logrus.Panicf("failed to run server, error: %v", err)
		}
	}()
	logrus.WithField("transitions", svc.Policy().Name()).Infof("server listening on %s", ln.Addr())

	<-done

	logrus.Info("shutting down...")
	if err := srv.Shutdown(shutdownTimeOut); err != nil {
		logrus.WithError(err).Error("failed to gracefully shutdown server")
	}
	if err := publisher.Close(); err != nil {
		logrus.WithError(err).Error("failed to close event publisher")
	}
	if err := db.Shutdown(); err != nil {
		logrus.WithError(err).Error("failed to close database connection!")
	}

	logrus.Info("system is shut ..zzz")
}

// seedAdmin creates the configured admin account on an empty admins table.
func seedAdmin(ctx context.Context, db *database.DB, email, password string) error {
	count, err := dbhelper.CountAdmins(ctx, db)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	hashed, err := utils.HashPassword(password)
	if err != nil {
		return err
	}
	if _, err := dbhelper.CreateAdmin(ctx, db, email, hashed); err != nil {
		return err
	}
	logrus.WithField("email", email).Info("seeded admin account")
	return nil
}
