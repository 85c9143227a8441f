package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/academic-marks-api/api/swagger"
	"github.com/noah-isme/academic-marks-api/internal/handler"
	internalmiddleware "github.com/noah-isme/academic-marks-api/internal/middleware"
	"github.com/noah-isme/academic-marks-api/internal/models"
	"github.com/noah-isme/academic-marks-api/internal/repository"
	"github.com/noah-isme/academic-marks-api/internal/service"
	"github.com/noah-isme/academic-marks-api/pkg/cache"
	"github.com/noah-isme/academic-marks-api/pkg/config"
	"github.com/noah-isme/academic-marks-api/pkg/database"
	"github.com/noah-isme/academic-marks-api/pkg/jobs"
	"github.com/noah-isme/academic-marks-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/academic-marks-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/academic-marks-api/pkg/middleware/requestid"
	"github.com/noah-isme/academic-marks-api/pkg/storage"
)

// @title Academic Marks API
// @version 1.0.0
// @description Spreadsheet mark ingestion and per-student mark ledgers
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(cfg, logr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	readiness := map[string]handler.ReadinessCheck{}

	var (
		db  *sqlx.DB
		err error
	)
	if cfg.Ledger.Driver == config.LedgerDriverPostgres {
		db, err = database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer db.Close()
		readiness["postgres"] = db.PingContext
	}

	var redisClient *redis.Client
	if cfg.Ledger.Driver == config.LedgerDriverRedis || cfg.Analysis.CacheEnabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			if cfg.Ledger.Driver == config.LedgerDriverRedis {
				return fmt.Errorf("connect redis: %w", err)
			}
			logr.Sugar().Warnw("redis unavailable, analysis cache disabled", "error", err)
		} else {
			redisClient = client
			defer redisClient.Close()
			readiness["redis"] = func(ctx context.Context) error { return cache.Ping(ctx, redisClient) }
		}
	}

	ledgerStore, err := newLedgerStore(ctx, cfg.Ledger.Driver, db, redisClient)
	if err != nil {
		return err
	}

	metricsSvc := service.NewMetricsService()
	validate := validator.New()

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, "marks")
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Analysis.CacheTTL, logr, cfg.Analysis.CacheEnabled && cacheRepo != nil)
	analysisSvc := service.NewAnalysisService(ledgerStore, cacheSvc, logr)

	uploadPolicy, err := service.GradePolicyByName(cfg.Ledger.UploadPolicy)
	if err != nil {
		return fmt.Errorf("GRADE_POLICY_UPLOAD: %w", err)
	}
	directPolicy, err := service.GradePolicyByName(cfg.Ledger.DirectPolicy)
	if err != nil {
		return fmt.Errorf("GRADE_POLICY_DIRECT: %w", err)
	}
	mergeKey := models.MergeKey(cfg.Ledger.MergeKey)
	if mergeKey != models.MergeByCourseName && mergeKey != models.MergeByCourseID {
		return fmt.Errorf("LEDGER_MERGE_KEY: unknown merge key %q", cfg.Ledger.MergeKey)
	}

	parser := service.NewSheetParser(logr)
	reconciler := service.NewMarksReconciler(ledgerStore, logr,
		service.WithGradePolicy(uploadPolicy),
		service.WithMergeKey(mergeKey),
	)

	ledgerSvc := service.NewLedgerService(ledgerStore, &directPolicy, validate, logr)
	ledgerSvc.SetObserver(analysisSvc)

	uploads, err := storage.NewLocalStorage(cfg.Imports.StorageDir)
	if err != nil {
		return fmt.Errorf("init upload storage: %w", err)
	}

	var importJobs interface {
		Create(ctx context.Context, job *models.ImportJob) error
		GetByID(ctx context.Context, id string) (*models.ImportJob, error)
		Update(ctx context.Context, id string, params repository.UpdateImportJobParams) error
		ListPending(ctx context.Context, limit int) ([]models.ImportJob, error)
	}
	if db != nil {
		pgJobs := repository.NewImportJobRepository(db)
		if err := pgJobs.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("import job schema: %w", err)
		}
		importJobs = pgJobs
	} else {
		importJobs = repository.NewMemoryImportJobRepository()
	}

	importSvc := service.NewMarksImportService(parser, reconciler, importJobs, uploads, metricsSvc, validate, logr)
	importSvc.SetObserver(analysisSvc)

	var importQueue *jobs.Queue
	if cfg.Imports.AsyncEnabled {
		worker := service.NewImportWorker(importSvc, cfg.Imports.WorkerRetries, logr)
		importQueue = jobs.NewQueue(service.ImportJobType, worker.Handle, jobs.QueueConfig{
			Workers:    cfg.Imports.WorkerConcurrency,
			MaxRetries: cfg.Imports.WorkerRetries,
			RetryDelay: 2 * time.Second,
			Logger:     logr,
		})
		importQueue.Start(ctx)
		defer importQueue.Stop()
		importSvc.SetQueue(importQueue)
		importSvc.RecoverPendingJobs(ctx)
	}

	exportFiles, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		return fmt.Errorf("init export storage: %w", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exportSvc := service.NewExportService(ledgerSvc, exportFiles, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.SignedURLTTL,
	}, logr)
	go runExportCleanup(ctx, exportSvc, cfg.Exports, logr)

	verifier := service.NewTokenVerifier(cfg.JWT.Secret, cfg.JWT.Issuer)

	marksHandler := handler.NewMarksHandler(importSvc, ledgerSvc, service.NewTemplateService(), cfg.Imports.MaxFileSizeBytes)
	exportHandler := handler.NewExportHandler(exportSvc)
	analysisHandler := handler.NewAnalysisHandler(analysisSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, readiness)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	teacher := string(models.RoleTeacher)
	admin := string(models.RoleAdmin)

	api := r.Group(cfg.APIPrefix)
	api.GET("/export/:token", exportHandler.Download)

	secured := api.Group("")
	secured.Use(internalmiddleware.JWT(verifier))

	staff := secured.Group("")
	staff.Use(internalmiddleware.RequireRoles(models.RoleTeacher, models.RoleAdmin))
	staff.POST("/marks/upload", internalmiddleware.Audit(logr, "marks.upload", "ledger"), marksHandler.Upload)
	staff.GET("/marks/imports/:id", marksHandler.ImportStatus)
	staff.GET("/marks/template", marksHandler.Template)
	staff.POST("/marks", internalmiddleware.Audit(logr, "marks.save", "ledger"), marksHandler.SaveMark)
	staff.GET("/analysis/semesters", analysisHandler.Semesters)
	staff.GET("/analysis/semesters/:semester", analysisHandler.SemesterAnalysis)
	staff.GET("/metrics/summary", metricsHandler.Snapshot)

	students := secured.Group("/students/:usn")
	students.Use(internalmiddleware.RBAC(teacher, admin, internalmiddleware.RoleSelf))
	students.GET("/marks", marksHandler.StudentMarks)
	students.POST("/marks/export", internalmiddleware.Audit(logr, "marks.export", "ledger"), exportHandler.ExportLedger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "ledger_driver", cfg.Ledger.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Sugar().Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newLedgerStore(ctx context.Context, driver string, db *sqlx.DB, client *redis.Client) (service.LedgerStore, error) {
	switch driver {
	case config.LedgerDriverMemory, "":
		return repository.NewMemoryLedgerStore(), nil
	case config.LedgerDriverRedis:
		if client == nil {
			return nil, errors.New("redis ledger driver requires a redis connection")
		}
		return repository.NewRedisLedgerStore(client), nil
	case config.LedgerDriverPostgres:
		if db == nil {
			return nil, errors.New("postgres ledger driver requires a database connection")
		}
		store := repository.NewPostgresLedgerStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("ledger schema: %w", err)
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown ledger driver %q", driver)
}

func runExportCleanup(ctx context.Context, exports *service.ExportService, cfg config.ExportsConfig, logr *zap.Logger) {
	if cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := exports.Cleanup(cfg.SignedURLTTL)
			if err != nil {
				logr.Sugar().Warnw("export cleanup failed", "error", err)
				continue
			}
			if len(removed) > 0 {
				logr.Sugar().Infow("export cleanup", "removed", len(removed))
			}
		}
	}
}
