package server

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"cheques-backend/internal/bureau"
	"cheques-backend/internal/cheques"
	"cheques-backend/internal/llm"
	"cheques-backend/internal/llm/gemini"
	"cheques-backend/internal/records"
	"cheques-backend/internal/shared/config"
	"cheques-backend/internal/shared/metrics"
	"cheques-backend/internal/shared/server/middleware"
	"cheques-backend/internal/shared/server/respond"
	"cheques-backend/internal/shared/storage/db"
	"cheques-backend/internal/shared/telemetry"
)

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(cfg config.Config) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
	)

	// Dependencies
	var sqlDB *sql.DB
	if cfg.DatabaseURL != "" {
		dbConn, err := db.Connect(context.Background(), cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
		if err != nil {
			telemetry.Warn("db.connect_failed", map[string]any{"error": err.Error()})
		} else {
			if err := db.RunMigrations(context.Background(), dbConn); err != nil {
				telemetry.Warn("db.migrate_failed", map[string]any{"error": err.Error()})
				dbConn.Close()
				dbConn = nil
			}
		}
		sqlDB = dbConn
	}

	var recordRepo records.Repo
	if sqlDB != nil {
		recordRepo = &records.PGRepo{DB: sqlDB}
	} else {
		recordRepo = records.NewMemoryRepo()
	}
	recordSvc := &records.Service{Repo: recordRepo}
	recordHandler := records.NewHandler(recordSvc)

	var validator bureau.Validator
	if cfg.BCRAMockMode {
		validator = bureau.NewMockValidator()
	} else {
		validator = bureau.NewBCRAClient(cfg.BCRAAPIURL, time.Duration(cfg.BCRATimeoutSeconds)*time.Second)
	}

	var extractor llm.Client
	extractor, err := gemini.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return nil, err
	}

	pipeline := &cheques.Pipeline{
		LLM:        extractor,
		Bureau:     validator,
		MaxCheques: cfg.MaxChequesPerDocument,
	}
	chequeHandler := cheques.NewHandler(pipeline, cfg.MaxUploadBytes, cfg.MaxPDFPages)

	uploadLimiter := middleware.NewRateLimiter(nil)
	uploadRule := middleware.RateLimitRule{Rate: 0.5, Burst: 5}

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{
			"status":    "ok",
			"mock_mode": cfg.BCRAMockMode,
		})
	})
	api.POST("/upload", middleware.RateLimit(uploadRule, uploadLimiter), chequeHandler.Upload)
	recordHandler.RegisterRoutes(api)

	r.GET("/metrics", metrics.Handler())

	return r, nil
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
