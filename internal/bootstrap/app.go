package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"documind-backend/internal/analysis"
	"documind-backend/internal/classify"
	"documind-backend/internal/documents"
	"documind-backend/internal/extraction"
	"documind-backend/internal/inference"
	"documind-backend/internal/ocr"
	"documind-backend/internal/services/health"
	"documind-backend/internal/shared/config"
	"documind-backend/internal/shared/server"
	"documind-backend/internal/shared/server/middleware"
	"documind-backend/internal/shared/storage/db"
	"documind-backend/internal/shared/storage/object"
	localstore "documind-backend/internal/shared/storage/object/local"
	s3store "documind-backend/internal/shared/storage/object/s3"
	"documind-backend/internal/shared/telemetry"
	"documind-backend/internal/summarize"
)

// App holds the constructed model handles, archive and router. Models are
// built once here and injected; nothing else constructs them.
type App struct {
	Config  config.Config
	Router  *gin.Engine
	DB      *sql.DB
	Dialect db.Dialect
	Store   object.ObjectStore

	DocumentsRepo    documents.Repo
	DocumentsService *documents.Service
	Classifier       *classify.Classifier
	Fields           *extraction.Engine
	Summarizer       *summarize.Summarizer
	OCR              *ocr.Extractor
	Processor        *analysis.Processor
	Health           *health.Service

	DocumentsHandler *documents.Handler
	AnalysisHandler  *analysis.Handler
}

// Options overrides collaborators, mainly for tests and the CLI.
type Options struct {
	ClassifierModel classify.Model
	SummaryModel    summarize.Model
	Recognizer      extraction.EntityRecognizer
	OCRRunner       ocr.Runner
	Store           object.ObjectStore
	SkipMigrations  bool
	// NoArchive skips the database and leaves outcomes unpersisted.
	NoArchive bool
	// RequireDatabase disables the in-memory fallback in every environment.
	RequireDatabase bool
}

// Build wires the application from configuration.
func Build(cfg config.Config) (*App, error) {
	return BuildWithOptions(context.Background(), cfg, Options{})
}

// BuildWithOptions wires the application, preferring collaborators in opts.
func BuildWithOptions(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}

	sqlDB, dialect, err := buildDB(ctx, cfg, opts)
	if err != nil {
		return nil, err
	}

	store := opts.Store
	if store == nil {
		store, err = buildStore(ctx, cfg)
		if err != nil {
			closeDB(sqlDB)
			return nil, err
		}
	}

	app := &App{
		Config:  cfg,
		DB:      sqlDB,
		Dialect: dialect,
		Store:   store,
		Health:  health.NewService(),
	}
	buildModels(app, opts)
	buildServices(app)
	if opts.NoArchive {
		app.Processor.Archive = nil
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          app.Config,
		Health:          app.Health,
		AnalysisHandler: app.AnalysisHandler,
		DocumentHandler: app.DocumentsHandler,
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":          cfg.Env,
		"archive":      archiveKind(dialect),
		"object_store": cfg.ObjectStoreType,
		"classifier":   cfg.ClassifierURL != "" || opts.ClassifierModel != nil,
		"summarizer":   cfg.SummarizerURL != "" || opts.SummaryModel != nil,
		"ner":          cfg.NERURL != "" || opts.Recognizer != nil,
		"parallel":     cfg.PipelineParallel,
	})
	return app, nil
}

// Close releases the database connection.
func (a *App) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

func buildDB(ctx context.Context, cfg config.Config, opts Options) (*sql.DB, db.Dialect, error) {
	if opts.NoArchive {
		return nil, "", nil
	}
	allowMemory := isDevLike(cfg.Env) && !opts.RequireDatabase
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if allowMemory {
			telemetry.Warn("bootstrap.memory_archive", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, "", nil
		}
		return nil, "", errors.New("DATABASE_URL is required")
	}

	sqlDB, dialect, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err != nil {
		if allowMemory {
			telemetry.Warn("bootstrap.memory_archive", map[string]any{"reason": "connect failed", "error": err})
			return nil, "", nil
		}
		return nil, "", err
	}

	if !opts.SkipMigrations {
		if err := db.RunMigrations(ctx, sqlDB, dialect); err != nil {
			_ = sqlDB.Close()
			return nil, "", fmt.Errorf("run migrations: %w", err)
		}
	}
	return sqlDB, dialect, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, errors.New("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, s3store.Options{
			Region:          cfg.AWSRegion,
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.S3Prefix,
			KMSKeyID:        cfg.SSEKMSKeyID,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretKey,
			UsePathStyle:    cfg.S3UsePathStyle,
		})
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildModels(app *App, opts Options) {
	cfg := app.Config

	classifierModel := opts.ClassifierModel
	if classifierModel == nil && cfg.ClassifierURL != "" {
		classifierModel = classify.HTTPModel{Client: inference.NewClient(cfg.ClassifierURL, cfg.InferenceTimeout)}
	}
	app.Classifier = classify.New(classifierModel, cfg.LabelMap, cfg.InferenceTimeout)

	summaryModel := opts.SummaryModel
	if summaryModel == nil && cfg.SummarizerURL != "" {
		summaryModel = summarize.HTTPModel{Client: inference.NewClient(cfg.SummarizerURL, cfg.InferenceTimeout)}
	}
	app.Summarizer = summarize.New(summaryModel, cfg.InferenceTimeout)
	if cfg.SummaryMaxInputTokens > 0 {
		app.Summarizer.MaxInputTokens = cfg.SummaryMaxInputTokens
	}
	if cfg.SummaryMinLength > 0 {
		app.Summarizer.MinLength = cfg.SummaryMinLength
	}
	if cfg.SummaryMaxLength > 0 {
		app.Summarizer.MaxLength = cfg.SummaryMaxLength
	}

	recognizer := opts.Recognizer
	if recognizer == nil && cfg.NERURL != "" {
		recognizer = extraction.HTTPRecognizer{Client: inference.NewClient(cfg.NERURL, cfg.InferenceTimeout)}
	}
	app.Fields = extraction.NewEngine(recognizer, cfg.InferenceTimeout)

	app.OCR = ocr.NewExtractor(ocr.Config{
		Tesseract:     cfg.TesseractBin,
		TesseractLang: cfg.TesseractLang,
		TessdataDir:   cfg.TessdataDir,
		PSM:           cfg.OCRPageSeg,
		Pdftoppm:      cfg.PdftoppmBin,
		DPI:           cfg.PDFDPI,
		MaxPages:      cfg.PDFMaxPages,
		WorkDir:       cfg.WorkDir,
	}, opts.OCRRunner)
}

func buildServices(app *App) {
	if app.DB != nil {
		app.DocumentsRepo = &documents.SQLRepo{DB: app.DB, Dialect: app.Dialect}
	} else {
		app.DocumentsRepo = documents.NewMemoryRepo()
	}
	app.DocumentsService = &documents.Service{
		Store:      app.Store,
		Repo:       app.DocumentsRepo,
		PresignTTL: app.Config.S3PresignTTL,
	}

	app.Processor = &analysis.Processor{
		OCR:            app.OCR,
		Classifier:     app.Classifier,
		Fields:         app.Fields,
		Summarizer:     app.Summarizer,
		Archive:        app.DocumentsService,
		WorkDir:        app.Config.WorkDir,
		Parallel:       app.Config.PipelineParallel,
		MaxUploadBytes: app.Config.MaxUploadBytes,
	}

	uploadLimit := middleware.RateLimit(middleware.RateLimitRule{
		Rate:  app.Config.UploadRatePerSec,
		Burst: app.Config.UploadBurst,
	}, nil)
	app.AnalysisHandler = analysis.NewHandler(app.Processor, uploadLimit)
	app.DocumentsHandler = documents.NewHandler(app.DocumentsService, app.Fields)

	if app.DB != nil {
		app.Health.Register("database", true, app.DB.PingContext)
	}
	app.Health.Register("classifier", false, app.Classifier.Ready)
}

func archiveKind(dialect db.Dialect) string {
	if dialect == "" {
		return "memory"
	}
	return string(dialect)
}

func closeDB(sqlDB *sql.DB) {
	if sqlDB != nil {
		_ = sqlDB.Close()
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local", "test":
		return true
	default:
		return false
	}
}
