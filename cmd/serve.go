package cmd

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"momentum/config"
	"momentum/middleware"
	"momentum/routes"
	"momentum/utils"
	"momentum/worker"
)

var skipMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and background workers",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := setup(); err != nil {
			return err
		}
		if !skipMigrate {
			if err := config.Migrate(config.DB); err != nil {
				return err
			}
		}
		flush, err := config.InitSentry()
		if err != nil {
			logrus.WithError(err).Warn("Sentry disabled")
		}
		defer flush()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func serve(ctx context.Context) error {
	mailer := worker.NewMailDispatcher(utils.NewMailer(config.AppConfig.Mail), 100)

	var domains utils.DomainChecker
	if config.AppConfig.VerifyDomains {
		domains = utils.WhoisDomainChecker{}
	}

	var presigner utils.Presigner
	if config.AppConfig.Storage.Bucket != "" {
		p, err := utils.NewS3Presigner(config.AppConfig.Storage)
		if err != nil {
			return err
		}
		presigner = p
	} else {
		logrus.Warn("Object storage not configured; upload URLs are disabled")
	}

	storage := middleware.NewRateLimitStorage(config.AppConfig.Redis)
	if storage != nil {
		defer storage.Close()
	}

	app := routes.NewApp(routes.NewServices(config.DB, mailer, domains, presigner), storage)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		mailer.Start(ctx)
		return nil
	})
	g.Go(func() error {
		logrus.Infof("Server starting on port %s", config.AppConfig.ServerPort)
		if err := app.Listen(":" + config.AppConfig.ServerPort); err != nil {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logrus.Info("Shutting down server...")
		if err := app.ShutdownWithTimeout(15 * time.Second); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	return g.Wait()
}

func init() {
	serveCmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not run schema migrations on startup")
}
