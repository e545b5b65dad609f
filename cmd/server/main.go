package main

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/crm-backend/internal/auth"
	"github.com/iliyamo/crm-backend/internal/config"
	"github.com/iliyamo/crm-backend/internal/database"
	"github.com/iliyamo/crm-backend/internal/handler"
	"github.com/iliyamo/crm-backend/internal/mail"
	"github.com/iliyamo/crm-backend/internal/queue"
	"github.com/iliyamo/crm-backend/internal/repository"
	"github.com/iliyamo/crm-backend/internal/router"
)

func main() {
	// .env is a convenience for local development; in production the
	// variables come from the environment and the file is absent.
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connect failed: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting and caching disabled")
	}

	tokens := auth.NewTokenService(
		cfg.JWTAccessSecret,
		cfg.JWTRefreshSecret,
		time.Duration(cfg.AccessTTLMin)*time.Minute,
		time.Duration(cfg.RefreshTTLDays)*24*time.Hour,
		time.Duration(cfg.ResetTTLMin)*time.Minute,
	)

	principals := repository.NewPrincipalRepo(db)
	users := repository.NewUserRepo(db)
	admins := repository.NewAdminRepo(db)
	quotes := repository.NewQuoteRepo(db)
	tickets := repository.NewTicketRepo(db)
	visits := repository.NewVisitRepo(db)
	activity := repository.NewActivityLogRepo(db)

	mailer := mail.NewQueueMailer()
	sessions := auth.NewSessionService(principals, tokens, visits, mailer, cfg.BcryptCost)

	// Drain the outbound mail queue in the background. The consumer keeps
	// reconnecting on its own; a broker outage only delays delivery.
	go func() {
		if err := queue.StartMailConsumer(); err != nil {
			log.Printf("mail consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	router.Register(e, router.Deps{
		DB:       db,
		Redis:    rdb,
		Tokens:   tokens,
		Auth:     handler.NewAuthHandler(sessions),
		Users:    handler.NewUserHandler(cfg, users, mailer),
		Admins:   handler.NewAdminHandler(cfg, admins, activity),
		Quotes:   handler.NewQuoteHandler(quotes, users, activity, mailer),
		Tickets:  handler.NewTicketHandler(tickets, admins, activity),
		Visits:   handler.NewVisitHandler(visits),
		Activity: handler.NewActivityLogHandler(activity),
	})

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
