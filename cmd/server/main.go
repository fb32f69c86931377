package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/dkravtsov/offerhub/internal/config"
	"github.com/dkravtsov/offerhub/internal/database"
	"github.com/dkravtsov/offerhub/internal/handler"
	"github.com/dkravtsov/offerhub/internal/mailer"
	"github.com/dkravtsov/offerhub/internal/notify"
	"github.com/dkravtsov/offerhub/internal/queue"
	"github.com/dkravtsov/offerhub/internal/repository"
	"github.com/dkravtsov/offerhub/internal/router"
	"github.com/dkravtsov/offerhub/internal/session"
	"github.com/dkravtsov/offerhub/internal/storage"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Sessions, stream tokens, notifications, rate limiting and the
	// response cache all live in Redis; without it auth cannot work.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Fatal("redis: connection failed")
	}
	defer rdb.Close()

	st, err := storage.New(context.Background(), cfg)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	if st == nil {
		log.Print("storage: not configured, attachment links disabled")
	}

	users := repository.NewUserRepo(db)
	personal := repository.NewPersonalDataRepo(db)
	verify := repository.NewVerifyRepo(db)
	offers := repository.NewOfferRepo(db)
	executors := repository.NewExecutorRepo(db)
	files := repository.NewFileRepo(db)
	catalog := repository.NewCatalogRepo(db)
	chats := repository.NewChatRepo(db)

	sessions := session.NewStore(rdb, cfg.RefreshTTLDays)
	notifyTokens := session.NewNotifyTokenStore(rdb, cfg.NotifyTokenTTLSec)
	bus := notify.NewBus(rdb)

	authH := handler.NewAuthHandler(cfg, users, sessions)
	userH := handler.NewUserHandler(cfg, users, personal, verify, sessions)
	offerH := handler.NewOfferHandler(offers, executors, files, st)
	executorH := handler.NewExecutorHandler(executors, offers, bus)
	fileH := handler.NewFileHandler(files, offers)
	catalogH := handler.NewCatalogHandler(catalog)
	chatH := handler.NewChatHandler(chats, executors, bus)
	notificationH := handler.NewNotificationHandler(notifyTokens, bus)

	go queue.StartEmailConsumer(mailer.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPEmail, cfg.SMTPPassword, cfg.Origin))

	rlCfg := config.LoadRateLimitConfig()
	cacheCfg := config.LoadCacheConfig()

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, userH, rlCfg, rdb)
	router.RegisterUser(e, userH)
	router.RegisterOffers(e, cfg, offerH, users, cacheCfg, rdb)
	router.RegisterMarket(e, cfg, users, executorH, fileH, chatH)
	router.RegisterCatalog(e, catalogH, cacheCfg, rdb)
	router.RegisterNotifications(e, cfg, users, notificationH)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
