package main

import (
	"context"
	"net/http"

	"omni3d_back/assets"
	"omni3d_back/cache"
	"omni3d_back/config"
	"omni3d_back/database"
	"omni3d_back/datasources"
	"omni3d_back/labels"
	"omni3d_back/logging"
	"omni3d_back/middleware"
	"omni3d_back/projects"
	"omni3d_back/response"
	"omni3d_back/storage"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func mustLoadEnv() {
	_ = godotenv.Load()
}

func main() {
	mustLoadEnv()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	mode := "development"
	if cfg.IsProduction() {
		mode = "production"
		gin.SetMode(gin.ReleaseMode)
	}
	log, err := logging.New(mode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Fatal("open database", "error", err)
	}

	store, err := storage.NewFileStore(cfg.UploadDir, cfg.MaxUploadBytes)
	if err != nil {
		log.Fatal("open file store", "error", err)
	}

	var records *cache.RecordCache
	if cfg.CacheEnabled() {
		client, err := cache.NewRedisClient(context.Background(), cache.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Warn("record cache disabled", "error", err)
		} else {
			defer client.Close()
			records = cache.NewRecordCache(client, cfg.CacheTTL, log)
		}
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log), middleware.CORS(cfg.AllowedOrigins))
	r.MaxMultipartMemory = 32 << 20
	r.Static(storage.URLPrefix, store.Dir())
	r.GET("/healthz", healthHandler(db))

	if _, err := projects.RegisterRoutes(r, db, store, log); err != nil {
		log.Fatal("register project routes", "error", err)
	}
	if _, err := assets.RegisterRoutes(r, db, store, log); err != nil {
		log.Fatal("register asset routes", "error", err)
	}
	if _, err := datasources.RegisterRoutes(r, db, records, log); err != nil {
		log.Fatal("register data source routes", "error", err)
	}
	if _, err := labels.RegisterRoutes(r, db, records, log); err != nil {
		log.Fatal("register label template routes", "error", err)
	}

	log.Info("server starting", "port", cfg.Port, "upload_dir", store.Dir(), "cache", records != nil)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("start server", "error", err)
	}
}

func healthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.Error(err)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, response.Envelope{
				Code:    http.StatusServiceUnavailable,
				Message: "database unavailable",
			})
			return
		}
		response.OK(c, gin.H{"status": "ok"})
	}
}
