package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quiz-battle-service/internal/app"
	"quiz-battle-service/internal/config"
	"quiz-battle-service/internal/domain"
	"quiz-battle-service/internal/infra/gemini"
	"quiz-battle-service/internal/infra/memory"
	pgbank "quiz-battle-service/internal/infra/postgres"
	redisinfra "quiz-battle-service/internal/infra/redis"
	transport "quiz-battle-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz-battle server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 30*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	// Curated fallback bank: postgres when configured, otherwise the built-in set.
	var bank app.QuestionProvider = memory.NewQuestionBank(sampleQuestionBanks())
	if pool != nil {
		bank = pgbank.NewQuestionBank(pool)
	}

	// AI generation in front of the bank when a Gemini key is configured.
	var provider app.QuestionProvider = bank
	if cfg.Gemini.APIKey != "" {
		ai, err := gemini.NewProvider(ctx, cfg.Gemini.APIKey)
		if err != nil {
			log.Printf("gemini unavailable, using curated bank only: %v", err)
		} else {
			provider = app.FallbackProvider{Primary: ai, Fallback: bank}
		}
	}

	questionTTL := config.TTLDuration(cfg.Questions.CacheTTL, 10*time.Minute)
	if redisClient != nil {
		provider = redisinfra.NewQuestionCache(redisClient, provider, questionTTL)
	} else {
		provider = memory.NewQuestionCache(provider, questionTTL)
	}

	var registry app.BattleRegistry
	if redisClient != nil {
		registry = redisinfra.NewBattleRegistry(redisClient, redisTTL)
	} else {
		registry = memory.NewBattleRegistry()
	}

	var archiver app.BattleArchiver
	if pool != nil {
		archiver = pgbank.NewBattleArchive(pool)
	}

	service := app.NewBattleService(registry, provider, archiver, nil, app.ServiceConfig{
		ChallengeTTL:     config.TTLDuration(cfg.Challenge.TTL, 5*time.Minute),
		CountdownTicks:   cfg.Battle.CountdownTicks,
		BetweenQuestions: config.TTLDuration(cfg.Battle.BetweenQuestions, 3*time.Second),
		DefaultTimeLimit: config.TTLDuration(cfg.Battle.TimeLimit, 15*time.Second),
		StaleAfter:       config.TTLDuration(cfg.Battle.StaleAfter, 15*time.Minute),
		ArenaMinPlayers:  cfg.Matchmaking.MinPlayers,
		ArenaMaxPlayers:  cfg.Matchmaking.MaxPlayers,
		ArenaTopic:       cfg.Matchmaking.Topic,
		ArenaQuestions:   cfg.Matchmaking.QuestionCount,
	})
	wsHandler := transport.NewWSHandler(service)

	loopCtx, stopLoops := context.WithCancel(ctx)
	defer stopLoops()
	go runSweeps(loopCtx, service,
		config.TTLDuration(cfg.Matchmaking.Interval, 5*time.Second),
		config.TTLDuration(cfg.Challenge.SweepInterval, 30*time.Second),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz-battle service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	stopLoops()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// runSweeps drives the periodic passes: matchmaking, challenge expiry, and
// the stale-battle sweep. All three are idempotent and logged, never escalated.
func runSweeps(ctx context.Context, service *app.BattleService, matchInterval, sweepInterval time.Duration) {
	matchTicker := time.NewTicker(matchInterval)
	sweepTicker := time.NewTicker(sweepInterval)
	defer matchTicker.Stop()
	defer sweepTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-matchTicker.C:
			for _, battle := range service.RunMatchmaking(ctx) {
				log.Printf("matchmaking created arena battle %s with %d players", battle.ID(), len(battle.PlayerIDs()))
			}
		case <-sweepTicker.C:
			if n := service.SweepChallenges(); n > 0 {
				log.Printf("expired %d stale challenges", n)
			}
			if n := service.SweepStaleBattles(); n > 0 {
				log.Printf("expired %d stale battles", n)
			}
		}
	}
}

// sampleQuestionBanks provides a minimal curated set; production deployments
// load banks from Postgres instead.
func sampleQuestionBanks() map[string]map[domain.Difficulty][]domain.Question {
	return map[string]map[domain.Difficulty][]domain.Question{
		"general knowledge": {
			domain.DifficultyEasy: {
				{Text: "What is 2 + 2?", Options: []string{"3", "4", "5", "6"}, CorrectIndex: 1},
				{Text: "How many days are in a week?", Options: []string{"5", "6", "7", "8"}, CorrectIndex: 2},
				{Text: "What color do you get mixing blue and yellow?", Options: []string{"Green", "Purple", "Orange", "Brown"}, CorrectIndex: 0},
				{Text: "Which planet do we live on?", Options: []string{"Mars", "Venus", "Earth", "Jupiter"}, CorrectIndex: 2},
				{Text: "How many legs does a spider have?", Options: []string{"6", "8", "10", "12"}, CorrectIndex: 1},
			},
			domain.DifficultyMedium: {
				{Text: "What is the capital of Australia?", Options: []string{"Sydney", "Melbourne", "Canberra", "Perth"}, CorrectIndex: 2},
				{Text: "Which element has the symbol Fe?", Options: []string{"Fluorine", "Iron", "Lead", "Tin"}, CorrectIndex: 1},
				{Text: "In which year did the Berlin Wall fall?", Options: []string{"1987", "1989", "1991", "1993"}, CorrectIndex: 1},
				{Text: "What is the largest ocean?", Options: []string{"Atlantic", "Indian", "Arctic", "Pacific"}, CorrectIndex: 3},
				{Text: "Who painted the Mona Lisa?", Options: []string{"Michelangelo", "Raphael", "Leonardo da Vinci", "Donatello"}, CorrectIndex: 2},
			},
			domain.DifficultyHard: {
				{Text: "What is the smallest prime greater than 100?", Options: []string{"101", "103", "107", "109"}, CorrectIndex: 0},
				{Text: "Which particle carries the strong force?", Options: []string{"Photon", "Gluon", "W boson", "Graviton"}, CorrectIndex: 1},
				{Text: "In what year was the Treaty of Westphalia signed?", Options: []string{"1618", "1635", "1648", "1660"}, CorrectIndex: 2},
				{Text: "What is the time complexity of heapsort?", Options: []string{"O(n)", "O(n log n)", "O(n^2)", "O(log n)"}, CorrectIndex: 1},
				{Text: "Which country has the most time zones?", Options: []string{"Russia", "USA", "France", "China"}, CorrectIndex: 2},
			},
		},
	}
}
