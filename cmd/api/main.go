package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"wagerpool-backend/internal/config"
	"wagerpool-backend/internal/handlers"
	"wagerpool-backend/internal/middleware"
	"wagerpool-backend/internal/services"
	"wagerpool-backend/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	st, err := store.New(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer st.Close()

	jwtService := services.NewJWTService(cfg)
	wallets := services.NewWalletBook(st, cfg)
	ledger := services.NewLedger(st, wallets, cfg)
	oracle := services.NewOracle(st, cfg)
	coordinator := services.NewCoordinator(st, ledger, oracle, cfg)

	ctx := context.Background()

	if err := ledger.EnsurePool(ctx); err != nil {
		log.Fatalf("Failed to initialize pool: %v", err)
	}
	// The coordinator requests randomness under game ids; it must be on
	// the oracle whitelist before the first game opens.
	if err := oracle.Authorize(ctx, cfg.AdminPrincipal, cfg.CoordinatorPrincipal); err != nil {
		log.Fatalf("Failed to whitelist coordinator: %v", err)
	}

	wsHandler := handlers.NewWebSocketHandler()
	coordinator.SetBroadcaster(wsHandler)

	// Durable records rent their storage: bump live games and their
	// randomness requests so they never age out mid-flight.
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			if _, err := coordinator.ExtendLiveGames(context.Background()); err != nil {
				log.Printf("Failed to extend live game lifetimes: %v", err)
			}
		}
	}()

	authHandler := handlers.NewAuthHandler(jwtService, cfg.Env)
	ledgerHandler := handlers.NewLedgerHandler(ledger)
	oracleHandler := handlers.NewOracleHandler(oracle)
	gameHandler := handlers.NewGameHandler(coordinator, st)
	walletHandler := handlers.NewWalletHandler(wallets)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Public reads, safe for off-path indexers and UIs to poll.
	router.GET("/auth/token", authHandler.IssueToken)
	router.GET("/pool", ledgerHandler.GetPoolState)
	router.GET("/pool/reservations/:game_id", ledgerHandler.GetReservation)
	router.GET("/oracle/requests/:id", oracleHandler.GetRequest)
	router.GET("/oracle/results/:id", oracleHandler.GetResult)
	router.GET("/games/:id", gameHandler.GetGame)
	// Resolution is a pure function of committed state; anyone may
	// trigger it once the oracle has fulfilled.
	router.POST("/games/resolve", gameHandler.Resolve)

	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(jwtService))
	{
		protected.GET("/ws", wsHandler.HandleWebSocket)

		protected.GET("/wallet", walletHandler.GetWallet)
		protected.GET("/wallet/transfers", walletHandler.GetTransfers)
		protected.POST("/pool/fund", ledgerHandler.Fund)

		games := protected.Group("/games")
		{
			games.POST("/open", gameHandler.Open)
			games.POST("/guess", gameHandler.SubmitGuess)
			games.POST("/claim", gameHandler.Claim)
			games.GET("", gameHandler.PlayerGames)
		}

		// Admin and oracle principals; the services enforce who may
		// call what.
		admin := protected.Group("/admin")
		{
			admin.POST("/pool/reserve", ledgerHandler.Reserve)
			admin.POST("/pool/release", ledgerHandler.Release)
			admin.POST("/pool/payout", ledgerHandler.Payout)

			admin.POST("/oracle/authorize", oracleHandler.Authorize)
			admin.POST("/oracle/revoke", oracleHandler.Revoke)
			admin.POST("/oracle/commit", oracleHandler.Commit)
			admin.POST("/oracle/fulfill", oracleHandler.Fulfill)

			admin.POST("/wallet/credit", walletHandler.Credit)
		}
	}

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
