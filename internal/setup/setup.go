package setup

import (
	"context"

	"github.com/civiport-dev/civiport/internal/config"
	"github.com/civiport-dev/civiport/internal/email"
	"github.com/civiport-dev/civiport/internal/handler"
	"github.com/civiport-dev/civiport/internal/jwt"
	"github.com/civiport-dev/civiport/internal/logger"
	"github.com/civiport-dev/civiport/internal/middleware"
	"github.com/civiport-dev/civiport/internal/mq"
	"github.com/civiport-dev/civiport/internal/service"
	"github.com/civiport-dev/civiport/internal/storage/pg"
	"github.com/civiport-dev/civiport/internal/storage/s3"
)

// Dependencies holds every initialized component of the application.
type Dependencies struct {
	Config         *config.Config
	Storage        *pg.Storage
	Handler        *handler.Handler
	AuthMiddleware *middleware.Auth
	Events         *service.Events
	Worker         *service.NotificationWorker
	Publisher      *mq.Publisher
	Consumer       *mq.Consumer
}

// SetupDependencies initializes storage, services and handlers. The welcome
// notification path degrades from broker-backed to direct delivery when no
// AMQP URL is configured.
func SetupDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	storage, err := pg.New(ctx, cfg)
	if err != nil {
		return nil, err
	}

	photos, err := s3.New(ctx, cfg)
	if err != nil {
		return nil, err
	}

	mailer := email.New(&cfg.Private.Smtp)
	tokens := jwt.New(cfg.JwtKey(), cfg.JwtTTL())

	deps := &Dependencies{Config: cfg, Storage: storage}

	var notifier service.Notifier
	if cfg.Private.AmqpURL != "" {
		publisher, err := mq.NewPublisher(cfg.Private.AmqpURL, cfg.Public.NotificationExchange)
		if err != nil {
			return nil, err
		}
		consumer, err := mq.NewConsumer(cfg.Private.AmqpURL, cfg.Public.NotificationExchange,
			service.WelcomeQueue, []string{service.WelcomeRoutingKey})
		if err != nil {
			if closeErr := publisher.Close(); closeErr != nil {
				logger.Log.Error("failed to close publisher", "error", closeErr)
			}
			return nil, err
		}
		deps.Publisher = publisher
		deps.Consumer = consumer
		deps.Worker = service.NewNotificationWorker(consumer, mailer)
		notifier = service.NewQueueNotifier(publisher)
	} else {
		logger.Log.Warn("amqp url not configured, sending welcome emails in-process")
		notifier = service.NewDirectNotifier(mailer)
	}

	auth := service.NewAuth(storage, tokens, notifier, !cfg.IsProduction())
	oauth := service.NewOAuth(storage, tokens, cfg)
	issues := service.NewIssues(storage, photos, cfg)
	events := service.NewEvents(storage)
	announcements := service.NewAnnouncements(storage)
	departments := service.NewDepartments(storage)

	deps.Events = events
	deps.Handler = handler.New(auth, oauth, issues, events, announcements, departments, storage, cfg)
	deps.AuthMiddleware = middleware.NewAuth(tokens)

	return deps, nil
}

// Cleanup releases broker connections and the database pool.
func (d *Dependencies) Cleanup() {
	if d.Publisher != nil {
		if err := d.Publisher.Close(); err != nil {
			logger.Log.Error("failed to close publisher", "error", err)
		}
	}
	if d.Consumer != nil {
		if err := d.Consumer.Close(); err != nil {
			logger.Log.Error("failed to close consumer", "error", err)
		}
	}
	if d.Storage != nil {
		if err := d.Storage.Cleanup(); err != nil {
			logger.Log.Error("failed to close storage", "error", err)
		}
	}
}
