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

	"GateLink/global"
	"GateLink/logger"
	"GateLink/middleware"
	"GateLink/service/access"
	"GateLink/service/archive"
	"GateLink/service/backplane"
	"GateLink/service/gateway"
	"GateLink/service/gateway/handlers"
	"GateLink/service/mgo"
	"GateLink/service/storage"
	redisx "GateLink/service/storage/redis"
	"GateLink/tools/safe"
	"GateLink/tools/security"
)

func main() {
	cfg := global.Load()
	global.ConfigIds(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// redis backs both the default backplane and the presence mirror
	redisUp := false
	if err := redisx.InitRedis(redisx.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}); err != nil {
		logger.Warnf("[boot] redis unavailable, presence mirror disabled: %v", err)
	} else {
		redisUp = true
	}

	// authorization store; joins fail closed until mongo is reachable
	mgo.StartAsync(ctx, &mgo.Config{
		URI:         cfg.MongoURI,
		Database:    cfg.MongoDatabase,
		MaxPoolSize: 20,
	})
	wctx, wcancel := context.WithTimeout(ctx, 10*time.Second)
	if err := mgo.WaitReady(wctx); err != nil {
		logger.Warnf("[boot] mongo not ready yet, joins will fail until it is: %v", err)
	}
	wcancel()
	store := access.NewStore(mgo.Manager())

	bus := buildBackplane(cfg, redisUp)

	var mirror gateway.PresenceMirror
	if redisUp {
		mirror = storage.NewMirror(cfg.NodeID, cfg.PresenceTTL)
	}

	var sink gateway.Archiver
	if len(cfg.KafkaBrokers) > 0 {
		prod, err := archive.NewProducer(cfg.KafkaBrokers, cfg.ArchiveTopic)
		if err != nil {
			logger.Warnf("[boot] archive producer disabled: %v", err)
		} else {
			sink = prod
			defer func() { _ = prod.Close() }()
		}
	}

	srv := gateway.NewServer(gateway.Options{
		NodeID:                cfg.NodeID,
		Verifier:              security.NewJWTVerifier(security.DefaultOptions(cfg.JwtSecret())),
		Bus:                   bus,
		Access:                store,
		Audience:              store,
		Mirror:                mirror,
		Archive:               sink,
		RequireSiteMembership: cfg.RequireSiteMembership,
		SendQueueSize:         cfg.SendQueueSize,
	})
	handlers.RegisterAll(srv)

	safe.Go("gateway-run", func() { srv.Run(ctx) })

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Origin(cfg.AllowedOrigins))
	r.GET("/ws", srv.HandleWS)
	r.GET("/health", srv.HandleHealth)
	r.GET("/metrics", srv.HandleMetrics)

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}
	safe.Go("http-listen", func() {
		logger.Infof("[boot] gateway node=%s listening on :%d", cfg.NodeID, cfg.Port)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("[boot] listen: %v", err)
			cancel()
		}
	})

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-sig:
		logger.Infof("[boot] signal %v, shutting down", s)
	case <-ctx.Done():
	}

	sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer scancel()
	_ = httpSrv.Shutdown(sctx)
	cancel()
	_ = redisx.CloseRedis()
}

func buildBackplane(cfg *global.AppConfig, redisUp bool) backplane.Backplane {
	switch cfg.BackplaneKind {
	case "nats":
		bus, err := backplane.NewNatsBus(backplane.NatsConfig{
			Servers: cfg.NatsServers,
			Name:    cfg.NodeID,
		})
		if err != nil {
			logger.Warnf("[boot] nats backplane unavailable, single-process fan-out: %v", err)
			return backplane.Noop{}
		}
		return bus
	case "none":
		return backplane.Noop{}
	default:
		if !redisUp {
			logger.Warnf("[boot] redis backplane unavailable, single-process fan-out")
			return backplane.Noop{}
		}
		return backplane.NewRedisBus(redisx.GetRedis())
	}
}
