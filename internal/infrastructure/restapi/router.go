package restapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// RouterOptions настраивает дополнительные маршруты.
type RouterOptions struct {
	// SwaggerSpec: путь к swagger.yaml; пусто = без Swagger UI.
	SwaggerSpec string
	// Metrics отдаёт /metrics; nil = promhttp.Handler().
	Metrics http.Handler
	// Logger пишет access-лог; nil = без него.
	Logger *slog.Logger
}

// requestLogger пишет по строке на запрос.
func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("HTTP request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start).String())
	}
}

// SetupRouter настраивает и возвращает экземпляр Gin роутера.
func SetupRouter(portfolioHandler *PortfolioHandler, opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if opts.Logger != nil {
		router.Use(requestLogger(opts.Logger))
	}
	router.Use(cors.Default())

	v1 := router.Group("/api/v1")
	{
		v1.GET("/chains", portfolioHandler.GetChainsHandler)
		v1.GET("/chains/:chain/gas", portfolioHandler.GetGasHandler)
		v1.GET("/balances/:address", portfolioHandler.GetBalancesHandler)
	}

	metricsHandler := opts.Metrics
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	router.GET("/metrics", gin.WrapH(metricsHandler))

	if opts.SwaggerSpec != "" {
		router.StaticFile("/docs/swagger.yaml", opts.SwaggerSpec)
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/docs/swagger.yaml")))
	}

	return router
}
