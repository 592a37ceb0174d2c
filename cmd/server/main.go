// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/unclebandit/crm-campaign-backend/internal/archive"
	"github.com/unclebandit/crm-campaign-backend/internal/cache"
	"github.com/unclebandit/crm-campaign-backend/internal/config"
	"github.com/unclebandit/crm-campaign-backend/internal/controller"
	"github.com/unclebandit/crm-campaign-backend/internal/db"
	"github.com/unclebandit/crm-campaign-backend/internal/handler"
	"github.com/unclebandit/crm-campaign-backend/internal/logging"
	"github.com/unclebandit/crm-campaign-backend/internal/queue"
	"github.com/unclebandit/crm-campaign-backend/internal/repository"
	"github.com/unclebandit/crm-campaign-backend/internal/service"
	"github.com/unclebandit/crm-campaign-backend/internal/whatsapp"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		logrus.Warn("⚠️ No .env file found, relying on OS environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	// Init DB
	conn, err := db.Init(cfg.DBUrl, cfg.DBMaxOpenConns)
	if err != nil {
		logrus.WithError(err).Fatal("❌ database unavailable")
	}
	defer conn.Close()
	if err := db.Migrate(conn, cfg.MigrationsPath); err != nil {
		logrus.WithError(err).Fatal("❌ migration failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	campaignRepo := &repository.CampaignRepository{DB: conn}
	contactRepo := &repository.ContactRepository{DB: conn}
	audienceRepo := &repository.AudienceRepository{DB: conn}
	optionsRepo := &repository.OptionsRepository{DB: conn}
	templateRepo := &repository.TemplateRepository{DB: conn}
	eventRepo := &repository.DispatchEventRepository{DB: conn}

	campaignService := &service.CampaignService{
		CampaignRepo: campaignRepo,
		ContactRepo:  contactRepo,
		AudienceRepo: audienceRepo,
		OptionsRepo:  optionsRepo,
		RunCountMode: cfg.RunCountMode,
	}
	if cfg.RedisAddr != "" {
		oc, err := cache.NewOptionsCache(cfg.RedisAddr, cfg.OptionsCacheTTL())
		if err != nil {
			logrus.WithError(err).Warn("⚠️ redis unavailable, options served uncached")
		} else {
			defer oc.Close()
			campaignService.Cache = oc
		}
	}

	publisher, closeQueue := setupQueue(ctx, cfg, eventRepo)
	defer closeQueue()

	wbox := whatsapp.NewClient(whatsapp.Config{
		BaseURL:  cfg.WboxAPIBase,
		APIKey:   cfg.WboxAPIKey,
		Channel:  cfg.WboxChannelNumber,
		Language: cfg.WboxLanguageCode,
		Timeout:  cfg.WboxTimeout(),
	})

	campaignController := &controller.CampaignController{CampaignService: campaignService}
	audienceController := &controller.AudienceController{
		AudienceService: &service.AudienceService{AudienceRepo: audienceRepo, BatchSize: cfg.CSVBatchSize},
	}
	templateHandler := &handler.TemplateHandler{
		Service: &service.TemplateService{Provider: wbox, TemplateRepo: templateRepo},
	}
	dispatchHandler := handler.NewDispatchHandler(&service.DispatchService{
		Provider:     wbox,
		TemplateRepo: templateRepo,
		CampaignRepo: campaignRepo,
		AudienceRepo: audienceRepo,
		Queue:        publisher,
		Topic:        cfg.DispatchQueue,
		CountryCode:  cfg.DispatchCountryCode,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(logging.RequestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins(),
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		controller.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Campaign routes
	r.Route("/campaigns", func(r chi.Router) {
		r.Get("/options", campaignController.Options)
		r.Get("/run/list", campaignController.RunList)
		r.Get("/upload/template", campaignController.UploadTemplate)
		r.Post("/send-whatsapp", dispatchHandler.SendWhatsApp)

		r.Post("/", campaignController.CreateCampaign)
		r.Get("/", campaignController.ListCampaigns)
		r.Get("/{id}", campaignController.GetCampaignDetails)
		r.Put("/{id}", campaignController.UpdateCampaign)
		r.Delete("/{id}", campaignController.DeleteCampaign)
		r.Get("/{id}/run", campaignController.RunDetails)
		r.Get("/{id}/numbers/download", campaignController.DownloadNumbers)
		r.Get("/{id}/upload/download", campaignController.DownloadContacts)
		r.Get("/{id}/upload/numbers", campaignController.UploadedNumbers)
	})

	// Audience routes
	r.Post("/audience/download", audienceController.DownloadCSV)
	r.Post("/audience/export", audienceController.ExportXLSX)
	r.Post("/audience/count", audienceController.Count)

	// Template routes
	r.Route("/templates", func(r chi.Router) {
		r.Post("/", templateHandler.CreateTemplate)
		r.Get("/", templateHandler.ListTemplates)
		r.Post("/image", templateHandler.CreateImageTemplate)
		r.Post("/video", templateHandler.CreateVideoTemplate)
		r.Post("/sync", templateHandler.SyncTemplate)
		r.Get("/{name}/details", templateHandler.TemplateDetails)
		r.Post("/send/text", dispatchHandler.SendText)
		r.Post("/send/image", dispatchHandler.SendImage)
		r.Post("/send/video", dispatchHandler.SendVideo)
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logrus.Infof("🚀 Server running on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("server stopped")
		}
	}()

	<-ctx.Done()
	logrus.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("graceful shutdown failed")
	}
}

// setupQueue publishes dispatch events to RabbitMQ when AMQP_URL is set, where
// cmd/worker archives them. Otherwise an in-process queue archives them here.
func setupQueue(ctx context.Context, cfg *config.Config, eventRepo *repository.DispatchEventRepository) (service.Publisher, func()) {
	if cfg.AMQPUrl != "" {
		aq, err := queue.DialAMQP(cfg.AMQPUrl)
		if err == nil {
			logrus.Info("📬 publishing dispatch events to RabbitMQ")
			return aq, func() { aq.Close() }
		}
		logrus.WithError(err).Warn("⚠️ rabbitmq unavailable, falling back to in-memory queue")
	}

	var archiver service.Archiver
	if cfg.MinIOEnabled() {
		m, err := archive.NewMinIOArchiver(ctx, cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOBucket)
		if err != nil {
			logrus.WithError(err).Warn("⚠️ minio unavailable, dispatch events kept in postgres only")
		} else {
			archiver = m
		}
	}

	q := queue.NewInMemoryQueue()
	worker := service.NewArchiveWorker(eventRepo, archiver)
	if err := q.Subscribe(cfg.DispatchQueue, worker.Handle); err != nil {
		logrus.WithError(err).Fatal("subscribe dispatch archive")
	}
	return q, q.Wait
}
