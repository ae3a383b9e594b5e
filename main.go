package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/SudiptoSatpati/DocSync-Backend/handlers"
	"github.com/SudiptoSatpati/DocSync-Backend/internal/auth"
	"github.com/SudiptoSatpati/DocSync-Backend/internal/cache"
	"github.com/SudiptoSatpati/DocSync-Backend/internal/collab"
	"github.com/SudiptoSatpati/DocSync-Backend/internal/config"
	"github.com/SudiptoSatpati/DocSync-Backend/internal/database"
	"github.com/SudiptoSatpati/DocSync-Backend/internal/document/repository"
	"github.com/SudiptoSatpati/DocSync-Backend/internal/document/service"
	"github.com/SudiptoSatpati/DocSync-Backend/internal/mail"
	"github.com/SudiptoSatpati/DocSync-Backend/internal/sessions"
	"github.com/SudiptoSatpati/DocSync-Backend/internal/storage"
	"github.com/SudiptoSatpati/DocSync-Backend/internal/users"
	"github.com/SudiptoSatpati/DocSync-Backend/pkg/logger"
	"github.com/SudiptoSatpati/DocSync-Backend/pkg/metrics"
	"github.com/SudiptoSatpati/DocSync-Backend/pkg/middleware"
)

var startTime = time.Now()

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: mongo=%v redis=%v oidc=%v smtp=%v",
		cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.OIDC.Issuer != "", cfg.SMTP.Host != "")

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// Lightweight CORS for the browser editor; tighten per deployment.
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	})

	ctx := context.Background()

	// Redis first: sessions, token blacklist, read cache and rate limiter all
	// degrade gracefully when it is absent.
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warnf("redis unreachable (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			redisClient = nil
		} else {
			sessions.SetBlacklistClient(redisClient)
			logger.Infof("connected to redis at %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && redisClient != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(redisClient, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	var sessionsSvc *sessions.Service
	if redisClient != nil {
		sessionsSvc = sessions.NewService(sessions.NewRedisRepository(redisClient, "session:"))
	}

	// MongoDB with retry/backoff to tolerate startup races.
	var mongoClient *mongo.Client
	var usersSvc *users.Service
	var store repository.Store
	if cfg.MongoDB.URI != "" {
		const maxAttempts = 5
		backoff := time.Second
		var errConn error
		for attempt := 1; attempt <= maxAttempts; attempt++ {
			mongoClient, errConn = database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
			if errConn == nil {
				break
			}
			logger.Warnf("attempt %d/%d: mongodb connect: %v", attempt, maxAttempts, errConn)
			if attempt < maxAttempts {
				time.Sleep(backoff)
				backoff *= 2
			}
		}
		if errConn != nil {
			logger.Warnf("could not connect to MongoDB after %d attempts: %v", maxAttempts, errConn)
		} else {
			defer func() { _ = mongoClient.Disconnect(ctx) }()
			db := mongoClient.Database(cfg.MongoDB.Database)
			usersSvc = users.NewService(users.NewMongoUserRepository(db.Collection(database.ColUsers)))
			store = repository.NewMongoStore(db.Collection(database.ColDocuments), db.Collection(database.ColVersions))
			if sessionsSvc == nil {
				sessionsSvc = sessions.NewService(sessions.NewMongoRepository(db.Collection(database.ColSessions)))
			}
		}
	}
	if store == nil {
		logger.Warnf("no MongoDB configured, using in-memory document store (development only)")
		store = repository.NewMemoryStore()
	}

	// Token verifier: external IdP when an issuer is configured, local HS256
	// otherwise.
	var verifier middleware.Verifier
	if cfg.OIDC.Issuer != "" {
		v, err := auth.NewOIDCVerifier(ctx, cfg.OIDC.Issuer, cfg.OIDC.ClientID)
		if err != nil {
			logger.Warnf("oidc verifier init failed, falling back to local tokens: %v", err)
		} else {
			verifier = v
		}
	}
	if verifier == nil {
		verifier = auth.NewHMACVerifier(cfg.JWT.Secret)
	}

	// Optional MinIO archive for snapshot payloads.
	var archive collab.Archiver
	if mcfg := storage.LoadConfig(); mcfg.Endpoint != "" {
		a, err := storage.NewVersionArchive(mcfg)
		if err != nil {
			logger.Warnf("version archive disabled: %v", err)
		} else {
			archive = a
			logger.Infof("archiving snapshots to %s/%s", mcfg.Endpoint, mcfg.Bucket)
		}
	}

	readCache := cache.New(redisClient, "docsync:")
	invalidator := cache.NewInvalidator(readCache)
	mailer := mail.NewSender(cfg.SMTP)
	snaps := collab.NewSnapshotter(store, archive)
	presence := collab.NewPresence(store)
	coordinator := collab.NewCoordinator(store, presence, snaps, invalidator)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	r.GET("/ready", func(c *gin.Context) {
		deps := map[string]bool{
			"sessions": sessionsSvc != nil,
			"users":    usersSvc != nil,
			"redis":    redisClient != nil || cfg.Redis.Host == "",
			"mongodb":  mongoClient != nil || cfg.MongoDB.URI == "",
		}
		ready := deps["sessions"] && deps["users"] && deps["redis"] && deps["mongodb"]
		status := http.StatusOK
		state := "ready"
		if !ready {
			status = http.StatusServiceUnavailable
			state = "not_ready"
		}
		c.JSON(status, gin.H{"status": state, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	if usersSvc != nil && sessionsSvc != nil {
		handlers.NewAuthHandler(cfg, usersSvc, sessionsSvc, mailer).Register(r.Group("/"))

		docSvc := service.New(store, readCache, invalidator, mailer, usersSvc, snaps)
		api := r.Group("/api", middleware.AuthMiddleware(verifier, sessions.IsAccessTokenBlacklisted))
		handlers.NewDocumentsHandler(docSvc).Register(api)

		wsAuth := collab.NewAuthenticator(verifier, usersSvc)
		handlers.NewWSHandler(wsAuth, coordinator).Register(r)
	} else {
		logger.Warnf("auth, document and ws routes not registered: user/session services unavailable")
	}

	handlers.RegisterSwagger(r)

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("starting docsync backend on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
