package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	alerthandler "silowatch/internal/alert/handler"
	alertrepo "silowatch/internal/alert/repository"
	alertservice "silowatch/internal/alert/service"
	"silowatch/internal/config"
	dphandler "silowatch/internal/dataprocess/handler"
	dprepo "silowatch/internal/dataprocess/repository"
	dpservice "silowatch/internal/dataprocess/service"
	"silowatch/internal/db"
	devicehandler "silowatch/internal/device/handler"
	devicerepo "silowatch/internal/device/repository"
	"silowatch/internal/events"
	healthhandler "silowatch/internal/health/handler"
	"silowatch/internal/history"
	identityhandler "silowatch/internal/identity/handler"
	identityservice "silowatch/internal/identity/service"
	"silowatch/internal/ingest"
	"silowatch/internal/liveness"
	"silowatch/internal/observability"
	orghandler "silowatch/internal/organization/handler"
	orgrepo "silowatch/internal/organization/repository"
	"silowatch/internal/policy/engine"
	"silowatch/internal/realtime"
	"silowatch/internal/relay"
	"silowatch/internal/security"
	"silowatch/internal/server"
	silohandler "silowatch/internal/silo/handler"
	silorepo "silowatch/internal/silo/repository"
	userhandler "silowatch/internal/user/handler"
	userrepo "silowatch/internal/user/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	providers, err := observability.NewProviders(ctx, cfg.OTLPEndpoint, "silowatch-server", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("observability: %v", err)
	}
	providers.SetGlobal()
	audit := observability.NewEventEmitter(providers.LoggerProvider)

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	privateKey, err := security.ParsePrivateKey(cfg.JWTPrivateKey)
	if err != nil {
		log.Fatalf("jwt private key: %v", err)
	}
	publicKey, err := security.ParsePublicKey(cfg.JWTPublicKey)
	if err != nil {
		log.Fatalf("jwt public key: %v", err)
	}
	tokens := security.NewTokenProvider(privateKey, publicKey, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL())
	hasher := security.NewHasher(cfg.BcryptCost)

	evaluator, err := engine.NewEvaluator()
	if err != nil {
		log.Fatalf("policy: %v", err)
	}

	devices := devicerepo.NewPostgresRepository(conn)
	silos := silorepo.NewPostgresRepository(conn)
	orgs := orgrepo.NewPostgresRepository(conn)
	users := userrepo.NewPostgresRepository(conn)
	alerts := alertrepo.NewPostgresRepository(conn)
	results := dprepo.NewPostgresRepository(conn)
	store := history.NewPostgresStore(conn, cfg.HistoryRetentionDuration())

	bus := events.NewBus()
	defer bus.Close()

	auth := identityservice.NewAuthService(users, hasher, tokens)
	resolver := identityservice.NewResolver(tokens, users)
	alertSvc := alertservice.NewService(alerts, silos, bus)
	resultSvc := dpservice.NewService(results, silos, bus)

	clientID := cfg.MQTTClientID
	if clientID == "" {
		clientID = "silowatch-server-" + uuid.NewString()[:8]
	}
	bridge := ingest.NewBridge(cfg.MQTTBrokerURL, clientID, ingest.NewHandler(devices, store, bus))
	go func() {
		if err := bridge.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("ingest: bridge stopped: %v", err)
		}
	}()

	monitor := liveness.NewMonitor(devices, bus, cfg.LivenessPeriodDuration(), cfg.LivenessThresholdDuration())
	monitor.Start(ctx)

	var relayConsumer *relay.Relay
	if brokers := cfg.KafkaBrokersList(); len(brokers) > 0 {
		relayConsumer = relay.NewRelay(brokers, cfg.KafkaTopic, cfg.KafkaGroupID, bus)
		relayConsumer.Start(ctx)
	}

	hub := realtime.NewHub(bus)
	hub.Start()

	router := server.NewRouter(server.Deps{
		Identity:      resolver,
		Auth:          identityhandler.NewHTTP(auth),
		Devices:       devicehandler.NewHTTP(devices, store, bridge, evaluator, audit),
		Silos:         silohandler.NewHTTP(silos),
		Organizations: orghandler.NewHTTP(orgs),
		Users:         userhandler.NewHTTP(users, hasher),
		Alerts:        alerthandler.NewHTTP(alertSvc),
		DataProcesses: dphandler.NewHTTP(resultSvc),
		Health: healthhandler.NewHTTP(conn, map[string]healthhandler.Checker{
			"policy": evaluator,
			"broker": bridge,
		}),
		WS:     realtime.NewWSHandler(hub, resolver),
		Stream: realtime.NewStreamHandler(bus, resolver, devices, evaluator),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("server: listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("server: shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server: shutdown: %v", err)
	}

	cancel()
	monitor.Stop()
	if relayConsumer != nil {
		relayConsumer.Stop()
	}
	hub.Stop()

	// Give in-flight audit emits a chance to land before tearing down exporters.
	time.Sleep(observability.ShutdownDrainDuration)
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("observability: shutdown: %v", err)
	}
	log.Println("server: stopped")
}
