package startup

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"

	"easystay_client/api"
	"easystay_client/authorization"
	"easystay_client/domain"
	"easystay_client/service"
	"easystay_client/startup/config"
	"easystay_client/store"
)

const serviceName = "easystay_client"

// noticeTTL is how long a transient notice stays visible.
const noticeTTL = 5 * time.Second

// App wires the stores, API clients and workflow services together. One
// App instance backs one running client.
type App struct {
	config *config.Config
	logger *logrus.Logger
	tp     *sdktrace.TracerProvider

	Sessions domain.SessionStore
	Flags    domain.FlagStore
	Notifier *service.Notifier
	Guard    *authorization.Guard

	Auth     *service.AuthService
	Search   *service.SearchService
	Bookings *service.BookingService
	Rooms    *service.RoomService
	Hotels   *service.HotelService
}

func NewApp(cfg *config.Config, navigate service.Navigator) (*App, error) {
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)

	tp, err := initTracerProvider(cfg.JaegerAddress)
	if err != nil {
		return nil, err
	}
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	tracer := tp.Tracer(serviceName)

	sessions := store.NewSessionMemoryStore()
	flags, err := store.NewFileFlagStore(cfg.FlagStateFile)
	if err != nil {
		return nil, fmt.Errorf("open flag store: %w", err)
	}

	guard, err := authorization.NewGuard(cfg.CasbinModelPath, cfg.CasbinPolicyPath, sessions, logger)
	if err != nil {
		return nil, err
	}

	baseClient := api.NewClient(cfg.APIBaseURL, logger, tracer)
	authClient := api.NewAuthClient(baseClient, sessions, logger)
	geoClient := api.NewGeoClient(cfg.GeoAPIBaseURL, logger)

	notifier := service.NewNotifier(noticeTTL, logger)

	return &App{
		config:   cfg,
		logger:   logger,
		tp:       tp,
		Sessions: sessions,
		Flags:    flags,
		Notifier: notifier,
		Guard:    guard,
		Auth:     service.NewAuthService(authClient, sessions, flags, notifier, logger, tracer),
		Search:   service.NewSearchService(baseClient, notifier, logger, tracer),
		Bookings: service.NewBookingService(authClient, notifier, navigate, logger, tracer),
		Rooms:    service.NewRoomService(authClient, notifier, logger, tracer),
		Hotels:   service.NewHotelService(authClient, geoClient, flags, sessions, notifier, logger, tracer),
	}, nil
}

func (app *App) Logger() *logrus.Logger {
	return app.logger
}

// Shutdown flushes pending spans and stops the notice timers.
func (app *App) Shutdown(ctx context.Context) error {
	app.Notifier.Close()
	return app.tp.Shutdown(ctx)
}

func initTracerProvider(address string) (*sdktrace.TracerProvider, error) {
	exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(address)))
	if err != nil {
		return nil, fmt.Errorf("create jaeger exporter: %w", err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
		)),
	), nil
}
