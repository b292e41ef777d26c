package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/2beens/gymbook/internal/config"
	"github.com/2beens/gymbook/internal/db"
	"github.com/2beens/gymbook/internal/file_box"
	"github.com/2beens/gymbook/internal/gym/exercises"
	"github.com/2beens/gymbook/internal/gym/musclegroups"
	"github.com/2beens/gymbook/internal/gym/users"
	"github.com/2beens/gymbook/internal/middleware"
	"github.com/2beens/gymbook/internal/telemetry/metrics"
	"github.com/2beens/gymbook/internal/telemetry/tracing"
	"github.com/2beens/gymbook/pkg"

	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/extra/redisotel/v8"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
)

const serviceName = "gymbook"

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server

	config  *config.Config
	store   *db.Store
	diskApi *file_box.DiskApi // exercise images

	redisClient *redis.Client
	// nil when redis is not configured
	rateLimiter middleware.RequestRateLimiter

	// telemetry
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func(context.Context) error
}

type NewServerParams struct {
	Config *config.Config
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	cfg := params.Config

	store, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := store.InitSchema(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("init db schema: %w", err)
	}
	log.Debugf("using db: %s", store.Path())

	diskApi, err := file_box.NewDiskApi(cfg.UploadsDir)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("new disk api: %w", err)
	}
	log.Debugf("using uploads dir: %s", diskApi.RootPath())

	promRegistry := metrics.SetupPrometheus(store.DB(), serviceName)
	metricsManager := metrics.NewManager(serviceName, "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	otelShutdown, err := tracing.Setup(ctx, serviceName, cfg.OtelEndpoint)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("tracing setup: %w", err)
	}

	s := &Server{
		config:         cfg,
		store:          store,
		diskApi:        diskApi,
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}

	if cfg.RedisHost != "" {
		s.redisClient = redis.NewClient(&redis.Options{
			Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
			Password: cfg.RedisPassword,
			DB:       0, // use default DB
		})
		s.redisClient.AddHook(redisotel.NewTracingHook())

		rdbStatus := s.redisClient.Ping(ctx)
		if err := rdbStatus.Err(); err != nil {
			log.Errorf("--> failed to ping redis: %s", err)
		} else {
			log.Debugf("redis ping: %s", rdbStatus.Val())
		}
		s.rateLimiter = redis_rate.NewLimiter(s.redisClient)
	} else {
		log.Debugln("redis not configured, user creation is not rate limited")
	}

	return s, nil
}

func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("gymbook-router"))
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.DrainAndCloseRequest())

	r.HandleFunc("/health", s.handleHealth).Methods("GET").Name("health")

	usersHandler := users.NewHandler(
		users.NewRepo(s.store),
		s.diskApi,
		s.metricsManager,
	)
	usersHandler.SetupRoutes(r, s.rateLimiter, s.config.CreateUserRateLimitPerMin)

	muscleGroupsHandler := musclegroups.NewHandler(
		musclegroups.NewRepo(s.store),
		s.diskApi,
	)
	muscleGroupsHandler.SetupRoutes(r)

	exercisesHandler := exercises.NewHandler(
		exercises.NewRepo(s.store),
		s.diskApi,
		s.metricsManager,
		s.config.MaxUploadSizeBytes(),
	)
	exercisesHandler.SetupRoutes(r)

	file_box.NewHandler(s.diskApi).SetupRoutes(r)

	// all the rest - unhandled paths
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pkg.WriteJSONError(w, "Not found", http.StatusNotFound)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pkg.WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
	})

	// outside of the router, so preflight requests and unmatched routes pass through them too
	var handler http.Handler = r
	handler = middleware.Cors(s.config.CorsAllowedOrigins)(handler)
	handler = middleware.LogRequest()(handler)
	handler = middleware.PanicRecovery(s.metricsManager)(handler)

	return handler
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.DB().PingContext(ctx); err != nil {
		log.Errorf("health check, ping db: %s", err)
		pkg.WriteJSONError(w, "Database unavailable", http.StatusServiceUnavailable)
		return
	}
	pkg.WriteJSONMessage(w, "ok", http.StatusOK)
}

func (s *Server) Serve(host string, port int) {
	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:           s.Router(),
		Addr:              ipAndPort,
		WriteTimeout:      time.Minute,
		ReadTimeout:       time.Minute,
		ReadHeaderTimeout: 10 * time.Second,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.InstrumentMetricHandler(
		s.promRegistry,
		promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{}),
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:              metricsAddr,
		Handler:           metricsRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown http server")
		}
		log.Warnln("server shut down")
	}

	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown metrics http server")
		}
		log.Warnln("metrics server shut down")
	}

	if err := s.otelShutdown(ctx); err != nil {
		log.Errorf("failed to shut down otel: %s", err)
	}
	log.Trace("otel shut down ...")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	log.Debugln("closing db ...")
	if err := s.store.Close(); err != nil {
		log.Errorf("failed to close db: %s", err)
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}
}
