package main // Entry point package

import (
    "log"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"

    "github.com/signhub/remote-signature/internal/cache"
    "github.com/signhub/remote-signature/internal/config"
    "github.com/signhub/remote-signature/internal/database"
    "github.com/signhub/remote-signature/internal/handler"
    "github.com/signhub/remote-signature/internal/queue"
    "github.com/signhub/remote-signature/internal/repository"
    "github.com/signhub/remote-signature/internal/router"
    "github.com/signhub/remote-signature/internal/service"
    "github.com/signhub/remote-signature/internal/utils"
)

func main() {
    // Load .env when present; real deployments set the environment directly.
    _ = godotenv.Load()

    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }

    // Redis backs the session/status caches and the rate limiter.  When it
    // is unreachable the caches fall back to the in-process store and the
    // limiter disables itself; the service keeps working on a single node.
    rdb := config.NewRedisClient()
    var store cache.Store
    if rdb != nil {
        store = cache.NewRedisStore(rdb)
    } else {
        log.Printf("redis unavailable, using in-process cache store")
        store = cache.NewMemoryStore()
    }

    codec := utils.NewTokenCodec(cfg.JWTSecret, cfg.TokenTTL)
    sessions := cache.NewSessionCache(store, cfg.SessionCacheTTL)
    statuses := cache.NewStatusCache(store, cfg.StatusCacheTTL)

    records := repository.NewMySQLSignRecordRepo(db)
    signatures := repository.NewMySQLUserSignatureRepo(db)

    svc := service.NewSignService(records, signatures, codec, sessions, statuses, cfg.BaseURL())
    h := handler.NewSignHandler(svc)

    // Background consumer appending completion events to the audit log.
    go func() {
        if err := queue.StartSignConsumer(); err != nil {
            log.Printf("sign consumer stopped: %v", err)
        }
    }()

    e := echo.New()
    router.RegisterRoutes(e)
    router.RegisterSign(e, h, codec, rdb)

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)

    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}
