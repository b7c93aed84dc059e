package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ArowuTest/raffle-backend/internal/config"
	"github.com/ArowuTest/raffle-backend/internal/handlers"
	"github.com/ArowuTest/raffle-backend/internal/middleware"
)

// HandlerDependencies holds the handlers the router mounts
type HandlerDependencies struct {
	AuthHandler    *handlers.AuthHandler
	LotteryHandler *handlers.LotteryHandler
	LedgerHandler  *handlers.LedgerHandler
}

// SetupRouter sets up the router
func SetupRouter(cfg *config.Config, deps HandlerDependencies, tokens middleware.TokenParser) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public routes
	public := router.Group("/api/v1")
	{
		public.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		auth := public.Group("/auth")
		{
			auth.POST("/register", deps.AuthHandler.Register)
			auth.POST("/login", deps.AuthHandler.Login)
		}
	}

	// Protected routes
	protected := router.Group("/api/v1")
	protected.Use(middleware.JWTAuthMiddleware(tokens))
	{
		lotteries := protected.Group("/lotteries")
		{
			lotteries.GET("", deps.LotteryHandler.ListLotteries)
			lotteries.POST("", deps.LotteryHandler.CreateLottery)
			lotteries.GET("/:id", deps.LotteryHandler.GetLottery)
			lotteries.GET("/:id/entries", deps.LotteryHandler.ListEntries)
			lotteries.GET("/:id/winning-entry", deps.LotteryHandler.GetWinningEntry)
			lotteries.POST("/:id/tickets", deps.LotteryHandler.BuyTicket)
			lotteries.POST("/:id/randomness", deps.LotteryHandler.RequestRandomness)
			lotteries.POST("/:id/winner", deps.LotteryHandler.PickWinner)
			lotteries.POST("/:id/reward", deps.LotteryHandler.RewardWinner)
			lotteries.POST("/:id/cancel", deps.LotteryHandler.CancelLottery)
		}

		protected.GET("/entries/:id", deps.LotteryHandler.GetEntry)
		protected.GET("/accounts/me", deps.LedgerHandler.GetAccount)
		protected.POST("/accounts", deps.LedgerHandler.OpenAccount)

		if cfg.Ledger.EnableFaucet {
			faucet := protected.Group("/ledger")
			{
				faucet.POST("/deposit", deps.LedgerHandler.Deposit)
				faucet.POST("/assets", deps.LedgerHandler.MintAsset)
			}
		}
	}

	return router
}
