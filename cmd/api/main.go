package main

import (
	"context"
	stdlog "log"
	"os"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/cleberrangel/clickup-risk-api/internal/cache"
	"github.com/cleberrangel/clickup-risk-api/internal/client"
	"github.com/cleberrangel/clickup-risk-api/internal/config"
	"github.com/cleberrangel/clickup-risk-api/internal/database"
	"github.com/cleberrangel/clickup-risk-api/internal/handler"
	"github.com/cleberrangel/clickup-risk-api/internal/logger"
	"github.com/cleberrangel/clickup-risk-api/internal/metrics"
	"github.com/cleberrangel/clickup-risk-api/internal/middleware"
	"github.com/cleberrangel/clickup-risk-api/internal/migration"
	"github.com/cleberrangel/clickup-risk-api/internal/repository"
	"github.com/cleberrangel/clickup-risk-api/internal/service"
	"github.com/cleberrangel/clickup-risk-api/internal/websocket"
	"github.com/gin-gonic/gin"
)

const Version = "1.0.0"

func main() {
	// Carrega configurações
	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatalf("Erro ao carregar configurações: %v", err)
	}

	// Inicializa logger estruturado
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	log := logger.Global()
	log.Info().
		Str("version", Version).
		Str("port", cfg.Port).
		Str("log_level", cfg.LogLevel).
		Bool("log_json", cfg.LogJSON).
		Msg("ClickUp Risk API iniciando")

	// Inicializa métricas
	metrics.Init()

	// Conecta ao banco e aplica migrações
	db, err := database.Connect(database.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Erro ao conectar ao banco de dados")
	}
	defer database.Close(db)

	if err := migration.NewMigrator(db).Run(); err != nil {
		log.Fatal().Err(err).Msg("Erro ao aplicar migrações")
	}

	// Inicializa dependências
	clickupClient := client.NewClient(cfg.TokenClickUp, cfg.PageSize, cfg.MaxOpenItems)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := clickupClient.ValidateToken(ctx); err != nil {
		log.Warn().Err(err).Msg("Token do ClickUp não validado, chamadas podem falhar")
	}
	cancel()

	estimateRepo := repository.NewEstimateRepository(db)
	resultCache := cache.NewCache(cfg.CacheTTL)
	defer resultCache.Stop()

	riskService := service.NewRiskService(clickupClient, estimateRepo, resultCache, cfg.TeamID, cfg.DefaultAssignee)

	// Hub de WebSocket para eventos de veredito
	wsHub := websocket.NewHub()
	go wsHub.Run()
	riskService.SetEventSink(wsHub)

	riskHandler := handler.NewRiskHandler(riskService)
	healthHandler := handler.NewHealthHandler(db, wsHub, Version)

	// Configura modo do Gin
	gin.SetMode(cfg.GinMode)

	// Inicializa router
	r := gin.New()
	r.Use(middleware.RequestID()) // Request ID + logging estruturado
	r.Use(middleware.AssigneeContext())
	r.Use(middleware.MetricsMiddleware())
	r.Use(middleware.AuditMiddleware())
	r.Use(gin.Recovery())

	// Health checks (públicos)
	r.GET("/health/live", healthHandler.LivenessCheck)
	r.GET("/health/ready", healthHandler.ReadinessCheck)

	// Grupo de rotas protegidas
	api := r.Group("/api/v1")
	api.Use(middleware.BearerAuth(middleware.AuthConfig{
		TokenAPI: cfg.TokenAPI,
	}))
	{
		api.GET("/items/:id/risk", riskHandler.GetItemRisk)
		api.PUT("/items/:id/estimate", riskHandler.SaveEstimate)
		api.DELETE("/items/:id/estimate", riskHandler.DeleteEstimate)
		api.GET("/portfolio", riskHandler.GetPortfolio)
		api.GET("/portfolio/report", riskHandler.ExportPortfolio)
		api.GET("/ws", wsHub.ServeWS)
	}

	// Endpoints administrativos
	if cfg.AdminUsername != "" && cfg.AdminPassword != "" {
		passwordHash, err := middleware.HashPassword(cfg.AdminPassword)
		if err != nil {
			log.Fatal().Err(err).Msg("Erro ao preparar credenciais administrativas")
		}

		admin := r.Group("/")
		admin.Use(middleware.BasicAuth(middleware.BasicAuthConfig{
			Username:     cfg.AdminUsername,
			PasswordHash: passwordHash,
		}))
		{
			admin.GET("/metrics", healthHandler.GetMetrics)
			admin.GET("/metrics/summary", healthHandler.GetMetricsSummary)

			admin.GET("/debug/memory", func(c *gin.Context) {
				var m runtime.MemStats
				runtime.ReadMemStats(&m)

				c.JSON(200, gin.H{
					"alloc_mb":       m.Alloc / 1024 / 1024,
					"total_alloc_mb": m.TotalAlloc / 1024 / 1024,
					"sys_mb":         m.Sys / 1024 / 1024,
					"heap_alloc_mb":  m.HeapAlloc / 1024 / 1024,
					"heap_inuse_mb":  m.HeapInuse / 1024 / 1024,
					"heap_objects":   m.HeapObjects,
					"goroutines":     runtime.NumGoroutine(),
					"gc_runs":        m.NumGC,
					"gc_pause_total": m.PauseTotalNs / 1000000, // ms
				})
			})

			admin.POST("/debug/gc", func(c *gin.Context) {
				runtime.GC()
				debug.FreeOSMemory()
				c.JSON(200, gin.H{"status": "gc_completed"})
			})
		}
	} else {
		log.Warn().Msg("ADMIN_USERNAME/ADMIN_PASSWORD não configurados, endpoints administrativos desabilitados")
	}

	// Inicia servidor
	port := cfg.Port
	log.Info().Str("port", port).Msg("Servidor iniciando")

	if err := r.Run(":" + port); err != nil {
		log.Fatal().Err(err).Msg("Erro ao iniciar servidor")
		os.Exit(1)
	}
}
