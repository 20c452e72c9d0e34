package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"golang.org/x/sync/errgroup"

	_ "nasrelay/docs"
	"nasrelay/internal/config"
	"nasrelay/internal/constants"
	"nasrelay/internal/ingress"
	"nasrelay/internal/logger"
	"nasrelay/pkg/bootstrap"
	"nasrelay/pkg/health"
	"nasrelay/pkg/logging"
	"nasrelay/pkg/metrics"
	"nasrelay/pkg/middleware"
	"nasrelay/pkg/ratelimit"
	"nasrelay/pkg/tracing"
)

type App struct {
	*bootstrap.Base
	tracerProvider *tracing.TracerProvider
	router         *gin.Engine
	server         *http.Server
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	if sugaredLogger, ok := log.(*logger.SugaredLogger); ok {
		sugaredLogger.SetServiceName(constants.ServiceName)
	}
	return &App{
		Base: bootstrap.NewBase(cfg, log),
	}
}

// Initialize wires the relay and every transport enabled in the config.
func (a *App) Initialize(ctx context.Context) error {
	tp, err := tracing.Init(a.Config.Tracing, constants.ServiceName)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.tracerProvider = tp

	metrics.RegisterRelayMetrics()
	metrics.RegisterBrokerMetrics()
	metrics.RegisterIngressMetrics()
	if a.Config.CircuitBreaker.Enabled {
		metrics.RegisterCircuitBreakerMetrics()
	}

	if err := a.InitRelay(); err != nil {
		return fmt.Errorf("failed to initialize relay: %w", err)
	}

	if err := a.InitConsumer(constants.ServiceName); err != nil {
		return fmt.Errorf("failed to initialize broker: %w", err)
	}

	a.initRouter(ctx)

	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
	}

	return nil
}

func (a *App) initRouter(ctx context.Context) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	if a.Config.Tracing.Enabled {
		router.Use(tracing.GinMiddleware(constants.ServiceName))
	}

	router.Use(middleware.RecoveryMiddleware(a.Logger))
	router.Use(middleware.LoggerMiddleware(a.Logger))
	router.Use(middleware.RequestIDMiddleware())

	if a.Config.Ingress.Enabled {
		if a.Config.Ingress.RateLimit.Enabled {
			rateLimitConfig := ratelimit.Config{
				RPS:             a.Config.Ingress.RateLimit.RPS,
				Burst:           a.Config.Ingress.RateLimit.Burst,
				CleanupInterval: a.Config.Ingress.RateLimit.CleanupInterval,
				MaxAge:          a.Config.Ingress.RateLimit.MaxAge,
			}
			router.Use(ratelimit.RateLimitMiddleware(ctx, rateLimitConfig))
			a.Logger.InfowCtx(ctx, "Rate limiting enabled", "rps", rateLimitConfig.RPS, "burst", rateLimitConfig.Burst)
		}

		ingress.NewHandler(a.Relay, a.Logger).RegisterRoutes(router)
		a.Logger.InfowCtx(ctx, "HTTP ingress enabled", "path", "/api/v1/events")
	}

	healthRegistry := health.NewCheckerRegistry()
	healthRegistry.Register(health.NewNtfyChecker(a.NtfyClient))
	if a.Consumer != nil {
		healthRegistry.RegisterOptional(health.NewKafkaChecker(a.Config.Broker.Kafka.Brokers))
	}

	router.GET("/health", func(c *gin.Context) {
		h := healthRegistry.Check(c.Request.Context())
		statusCode := http.StatusOK
		if h.Status == health.StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		c.JSON(statusCode, h)
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if a.Config.Ingress.Enabled {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	a.router = router
}

func (a *App) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfowCtx(ctx, "HTTP server starting", "port", a.Config.Server.Port)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})

	if a.Consumer != nil {
		inputTopic := a.Config.Broker.Kafka.InputTopic
		g.Go(func() error {
			return a.Consumer.Consume(gCtx, inputTopic, a.handleEvent)
		})
	}

	return g.Wait()
}

func (a *App) handleEvent(ctx context.Context, event *events.SNSEvent) error {
	ctx = logging.WithTransport(ctx, constants.TransportKafka)
	result := a.Relay.HandleEvent(ctx, event)
	a.Logger.DebugwCtx(ctx, "Kafka event handled", "result", result.String())
	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	shutdownCtx := logging.WithServiceName(ctx, constants.ServiceName)
	a.Logger.InfowCtx(shutdownCtx, "Shutting down relay service")

	additionalShutdown := func(ctx context.Context) []error {
		var errs []error

		if a.tracerProvider != nil {
			if err := a.tracerProvider.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("tracer provider shutdown error: %w", err))
			}
		}

		return errs
	}

	return a.Base.Shutdown(ctx, additionalShutdown)
}
