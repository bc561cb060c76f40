package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"knowledge-graph/internal/graph"
	"knowledge-graph/pkg/config"
	"knowledge-graph/pkg/logger"
)

var (
	flagDBURL    string
	flagUsername string
	flagPassword string
	flagDatabase string
	flagPort     string
)

var rootCmd = &cobra.Command{
	Use:   "knowledge-graph-server",
	Short: "Project knowledge graph service backed by Neo4j",
	Long: "Stores and queries project-scoped knowledge: typed entities, typed\n" +
		"relationships and a sequence-numbered migration journal, exposed over\n" +
		"a small HTTP API.",
	RunE: runServer,
}

func init() {
	rootCmd.Flags().StringVar(&flagDBURL, "db-url", "", "Neo4j connection URI (overrides NEO4J_URI)")
	rootCmd.Flags().StringVar(&flagUsername, "username", "", "Neo4j username (overrides NEO4J_USERNAME)")
	rootCmd.Flags().StringVar(&flagPassword, "password", "", "Neo4j password (overrides NEO4J_PASSWORD)")
	rootCmd.Flags().StringVar(&flagDatabase, "database", "", "Neo4j database name (overrides NEO4J_DATABASE)")
	rootCmd.Flags().StringVar(&flagPort, "port", "", "HTTP listen port (overrides PORT)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	// Load configuration, then apply flag overrides
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if flagDBURL != "" {
		cfg.Neo4jURI = flagDBURL
	}
	if flagUsername != "" {
		cfg.Neo4jUser = flagUsername
	}
	if flagPassword != "" {
		cfg.Neo4jPassword = flagPassword
	}
	if flagDatabase != "" {
		cfg.Neo4jDatabase = flagDatabase
	}
	if flagPort != "" {
		cfg.Port = flagPort
	}

	// Initialize logger
	if err := logger.Init(cfg.Env); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting knowledge graph server...")

	// Connect to Neo4j. Failure here is fatal, no retry.
	ctx := context.Background()
	store := graph.NewStore(cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword, cfg.Neo4jDatabase)
	if err := store.Connect(ctx); err != nil {
		log.Fatal("Failed to connect to Neo4j", zap.Error(err))
	}
	defer store.Close(context.Background())

	repo := graph.NewRepository(store)

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(requestID())
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	registerRoutes(router, repo, log)

	// The raw Cypher gateway is an unrestricted escape hatch, only
	// wired up when explicitly enabled.
	if cfg.AllowRawCypher {
		gateway := graph.NewRawGateway(store)
		registerCypherRoute(router, gateway, log)
		log.Warn("Raw Cypher endpoint enabled")
	}

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started", zap.String("port", cfg.Port))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
	return nil
}

// requestID attaches a correlation ID to every request
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}

// corsMiddleware allows cross-origin calls from browser tooling
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// ginLogger is a custom logger middleware for Gin
func ginLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Info("HTTP Request",
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
			zap.String("request_id", c.GetString("request_id")),
		)
	}
}
