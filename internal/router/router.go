package router

import (
	"time"

	"boigordo/internal/config"
	"boigordo/internal/handler"
	"boigordo/internal/infra"
	"boigordo/internal/middleware"
	"boigordo/internal/repository"
	"boigordo/internal/service"
	"boigordo/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, alertCB *infra.CircuitBreaker, dispatcher *worker.Dispatcher) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(config.SplitList(cfg.CORSAllowedOrigins)))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	purchaseRepo := repository.NewPurchaseRepository(db)
	penRepo := repository.NewPenRepository(db)
	interventionRepo := repository.NewInterventionRepository(db)
	mortalityRepo := repository.NewMortalityRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)
	analysisRepo := repository.NewFinancialAnalysisRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	financialSvc := service.NewFinancialService(expenseRepo, analysisRepo)
	interventionSvc := service.NewInterventionService(service.InterventionDeps{
		Purchases:            purchaseRepo,
		Pens:                 penRepo,
		Interventions:        interventionRepo,
		Mortality:            mortalityRepo,
		Financial:            financialSvc,
		Redis:                rdb,
		Dispatcher:           dispatcher,
		StatsCacheTTL:        time.Duration(cfg.StatsCacheTTLSeconds) * time.Second,
		HighMortalityRatePct: cfg.HighMortalityRatePct,
	})

	// ── Handlers ─────────────────────────────────────────────────────────────
	interventionsH := handler.NewInterventionsHandler(interventionSvc)
	pensH := handler.NewPensHandler(interventionSvc)
	financialH := handler.NewFinancialHandler(financialSvc)

	// ── Routes ───────────────────────────────────────────────────────────────
	r.GET("/health", handler.Health(db, rdb, alertCB))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	{
		iv := v1.Group("/interventions")
		{
			iv.POST("/health", interventionsH.CreateHealth)
			iv.POST("/mortality", interventionsH.CreateMortality)
			iv.POST("/movements", interventionsH.CreateMovement)
			iv.POST("/weights", interventionsH.CreateWeight)
			iv.GET("/history", interventionsH.History)
			iv.GET("/statistics", interventionsH.Statistics)
		}

		v1.GET("/pens/:id/cost", pensH.Cost)

		v1.GET("/expenses", financialH.Expenses)
		v1.GET("/financial-analysis/:month", financialH.Analysis)
		v1.GET("/financial-analysis/:month/pdf", financialH.AnalysisPDF)
		v1.GET("/categories", financialH.Categories)
	}

	// Swagger UI, only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
