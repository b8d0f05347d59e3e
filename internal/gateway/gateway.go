// Package gateway serves ScheduleService as JSON over HTTP. Requests call
// the service implementation in-process; no second network hop is made.
package gateway

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"healthcare-portal-api/internal/auth"
	"healthcare-portal-api/internal/metrics"
	"healthcare-portal-api/internal/middleware"
	"healthcare-portal-api/internal/rpc"
)

type Options struct {
	Service  rpc.ScheduleServiceServer
	Tokens   *auth.Issuer
	Limiter  *middleware.RateLimiter
	Metrics  *metrics.Collector
	Gatherer prometheus.Gatherer
	// Ready backs /healthz. Nil means always ready.
	Ready  func(context.Context) error
	Logger *zap.Logger
}

type Gateway struct {
	svc      rpc.ScheduleServiceServer
	tokens   *auth.Issuer
	limiter  *middleware.RateLimiter
	metrics  *metrics.Collector
	gatherer prometheus.Gatherer
	ready    func(context.Context) error
	log      *zap.Logger
}

func New(opts Options) *Gateway {
	return &Gateway{
		svc:      opts.Service,
		tokens:   opts.Tokens,
		limiter:  opts.Limiter,
		metrics:  opts.Metrics,
		gatherer: opts.Gatherer,
		ready:    opts.Ready,
		log:      opts.Logger.Named("gateway"),
	}
}

func (g *Gateway) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), g.cors(), g.observe())

	r.GET("/healthz", g.healthz)
	if g.gatherer != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler(g.gatherer)))
	}

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/register", g.rateLimited(), g.register)
	authGroup.POST("/login", g.rateLimited(), g.login)
	authGroup.POST("/refresh", g.rateLimited(), g.refresh)
	authGroup.POST("/logout", g.authenticated(), g.logout)

	doctors := api.Group("/doctors", g.authenticated())
	doctors.GET("", g.listDoctors)
	doctors.PUT("/me/availability", g.setAvailability)
	doctors.GET("/:id/availability", g.getAvailability)

	appts := api.Group("/appointments", g.authenticated())
	appts.POST("/book", g.book)
	appts.GET("/patient", g.listPatient)
	appts.GET("/doctor", g.listDoctor)
	appts.PUT("/:id/status", g.updateStatus)
	appts.DELETE("/:id", g.cancel)

	return r
}

func (g *Gateway) cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			origin = "*"
		}
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		h.Set("Access-Control-Max-Age", "86400")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (g *Gateway) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		if g.metrics != nil {
			g.metrics.InFlightGauge.Inc()
			defer g.metrics.InFlightGauge.Dec()
		}

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		code := c.Writer.Status()
		latency := time.Since(start)
		if g.metrics != nil {
			g.metrics.RequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(code)).Inc()
			g.metrics.RequestDuration.WithLabelValues(c.Request.Method, route).Observe(latency.Seconds())
		}
		g.log.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", code),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

func (g *Gateway) authenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := middleware.BearerToken(c.GetHeader("Authorization"))
		ctx, err := middleware.Authenticate(c.Request.Context(), g.tokens, raw)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (g *Gateway) rateLimited() gin.HandlerFunc {
	return func(c *gin.Context) {
		if g.limiter != nil && !g.limiter.Allow(c.ClientIP()) {
			respondError(c, http.StatusTooManyRequests, "ResourceExhausted", "too many requests")
			return
		}
		c.Next()
	}
}

func (g *Gateway) healthz(c *gin.Context) {
	if g.ready != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := g.ready(ctx); err != nil {
			g.log.Warn("readiness check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
