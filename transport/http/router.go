package http

import (
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/layer-3/playground/service"
)

// RoutePrefix is the twirp route prefix of the challenge service
const RoutePrefix = "/twirp/challenge.SuiChallenge/"

// RouterConfig configures SetupRouter
type RouterConfig struct {
	Timeout  time.Duration
	Logger   log.Logger
	Registry *prometheus.Registry // Metrics are not served when nil
}

// SetupRouter sets up the Gin router
func SetupRouter(svc *service.ChallengeService, cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID())
	if cfg.Logger != nil {
		router.Use(Logger(cfg.Logger))
	}

	handlers := NewChallengeHandlers(svc)

	router.GET("/healthz", handlers.Healthz)

	rpc := router.Group(RoutePrefix)
	if cfg.Registry != nil {
		rpc.Use(NewMetrics(cfg.Registry).Middleware())
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{})))
	}
	rpc.Use(Timeout(cfg.Timeout))
	{
		rpc.POST("GetChallengeInfo", handlers.GetChallengeInfo)
		rpc.POST("NewPlayground", handlers.NewPlayground)
		rpc.POST("GetSourceCode", handlers.GetSourceCode)
	}

	// Routes recovering the account from the token
	auth := rpc.Group("")
	auth.Use(AuthMiddleware())
	{
		auth.POST("DeployContract", handlers.DeployContract)
		auth.POST("GetFlag", handlers.GetFlag)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Code: CodeBadRoute,
			Msg:  "no handler for path " + c.Request.URL.Path,
		})
	})

	return router
}
