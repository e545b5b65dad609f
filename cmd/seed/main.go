// Command seed fills the database with generated CRM data for local
// development and load testing. It writes straight through the repositories
// with a fixed-size worker pool and keeps no session state: seeded accounts
// sign in through the API like any other.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/joho/godotenv"

	"github.com/iliyamo/crm-backend/internal/auth"
	"github.com/iliyamo/crm-backend/internal/config"
	"github.com/iliyamo/crm-backend/internal/database"
	"github.com/iliyamo/crm-backend/internal/model"
	"github.com/iliyamo/crm-backend/internal/repository"
)

var (
	userCount = flag.Int("users", 100, "number of users to create")
	workers   = flag.Int("workers", 8, "size of the worker pool")
	seed      = flag.Int64("seed", 0, "RNG seed (0 = time-based)")
)

var firstNames = []string{"Ada", "Brian", "Carmen", "Dana", "Elif", "Farid", "Grace", "Hassan", "Iris", "Jonas", "Kira", "Liam", "Mina", "Noor", "Omar", "Priya"}
var lastNames = []string{"Haddad", "Ito", "Johansson", "Kaya", "Lindgren", "Moreau", "Nakamura", "Okafor", "Petrov", "Quinn", "Rahimi", "Silva", "Tanaka", "Usman"}
var quoteTypes = []string{"renovation", "installation", "maintenance", "consulting"}
var issues = []string{
	"Cannot open the latest quote PDF",
	"Invoice total does not match the approved quote",
	"Password reset mail never arrived",
	"Premium features missing after upgrade",
	"Profile picture upload fails",
}
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 13_4) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.5 Safari/605.1.15",
	"Mozilla/5.0 (Linux; Android 13; Pixel 7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Mobile Safari/537.36",
	"Mozilla/5.0 (SMART-TV; Linux; Tizen 6.5) AppleWebKit/537.36 (KHTML, like Gecko) 85.0.4183.93/6.5 TV Safari/537.36",
	"Mozilla/5.0 (PlayStation; PlayStation 5/2.26) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/13.0 Safari/605.1.15",
}

func main() {
	flag.Parse()
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connect failed: %v", err)
	}
	defer db.Close()

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	users := repository.NewUserRepo(db)
	quotes := repository.NewQuoteRepo(db)
	tickets := repository.NewTicketRepo(db)
	visits := repository.NewVisitRepo(db)

	jobs := make(chan int)
	var wg sync.WaitGroup
	start := time.Now()

	for w := 0; w < *workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			// Each worker owns its RNG; the shared rand source would
			// serialize the pool on its mutex.
			rng := rand.New(rand.NewSource(rngSeed + int64(worker)))
			for i := range jobs {
				if err := seedUser(users, quotes, tickets, visits, rng, i, cfg.BcryptCost); err != nil {
					log.Printf("seed user %d failed: %v", i, err)
				}
			}
		}(w)
	}

	for i := 0; i < *userCount; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	log.Printf("seeded %d users in %s", *userCount, time.Since(start).Round(time.Millisecond))
}

// seedUser creates one user plus a random handful of quotes, tickets and
// visit rows.
func seedUser(users *repository.UserRepo, quotes *repository.QuoteRepo, tickets *repository.TicketRepo, visits *repository.VisitRepo, rng *rand.Rand, i, bcryptCost int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	first := firstNames[rng.Intn(len(firstNames))]
	last := lastNames[rng.Intn(len(lastNames))]
	accountType := model.AccountFree
	if rng.Intn(4) == 0 {
		accountType = model.AccountPremium
	}

	id, err := users.Create(ctx, repository.CreateUserParams{
		FirstName:   first,
		LastName:    last,
		Email:       fmt.Sprintf("%s.%s.%d@example.test", first, last, i),
		PhoneNumber: fmt.Sprintf("+1555%07d", rng.Intn(10000000)),
		Password:    "seeded-password",
		AccountType: accountType,
	}, bcryptCost)
	if err != nil {
		return err
	}
	// Seeded accounts skip OTP activation.
	if err := users.Activate(ctx, id); err != nil {
		return err
	}

	for n := rng.Intn(4); n > 0; n-- {
		cost := float64(rng.Intn(90000)+1000) / 10
		until := time.Now().AddDate(0, 0, rng.Intn(60)+7)
		if _, err := quotes.Create(ctx, repository.CreateQuoteParams{
			UserID:        id,
			Details:       fmt.Sprintf("%s work, generated record %d", quoteTypes[rng.Intn(len(quoteTypes))], n),
			EstimatedCost: &cost,
			ValidUntil:    &until,
			QuoteType:     quoteTypes[rng.Intn(len(quoteTypes))],
		}); err != nil {
			return err
		}
	}

	for n := rng.Intn(3); n > 0; n-- {
		priorities := []string{model.PriorityLow, model.PriorityMedium, model.PriorityHigh}
		if _, err := tickets.Create(ctx, id, issues[rng.Intn(len(issues))], priorities[rng.Intn(len(priorities))]); err != nil {
			return err
		}
	}

	for n := rng.Intn(5); n > 0; n-- {
		cls := auth.ClassifyUserAgent(userAgents[rng.Intn(len(userAgents))])
		ip := fmt.Sprintf("203.0.113.%d", rng.Intn(255))
		if err := visits.Record(ctx, id, ip, cls); err != nil {
			return err
		}
	}
	return nil
}
