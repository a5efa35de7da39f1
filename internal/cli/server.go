package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bantay-bayan/internal/app"
	"bantay-bayan/internal/config"
	"bantay-bayan/internal/domain"
	"bantay-bayan/internal/grading"
	"bantay-bayan/internal/infra/memory"
	pgstore "bantay-bayan/internal/infra/postgres"
	redisstore "bantay-bayan/internal/infra/redis"
	transport "bantay-bayan/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// tokenSeeder is implemented by both session stores.
type tokenSeeder interface {
	app.SessionRepository
	Put(ctx context.Context, token string, identity domain.CallerIdentity) error
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

	redisClient := newRedisClient(cfg)
	sessionTTL := config.TTLDuration(cfg.Auth.SessionTTL, 24*time.Hour)

	var store app.QuizStore = memory.NewQuizStore(sampleQuizzes())
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		store = pgstore.NewQuizStore(pool)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	var sessions tokenSeeder
	if redisClient != nil {
		defer redisClient.Close()
		quizRepo = redisstore.NewQuizRepository(redisClient, store, quizTTL)
		sessions = redisstore.NewSessionStore(redisClient, sessionTTL)
	} else {
		quizRepo = memory.NewQuizRepository(store, quizTTL)
		sessions = memory.NewSessionStore(sessionTTL)
	}

	if cfg.Auth.AdminToken != "" {
		if err := sessions.Put(ctx, cfg.Auth.AdminToken, domain.CallerIdentity{UserID: "admin", Role: domain.RoleAdmin}); err != nil {
			return err
		}
		log.Printf("registered configured admin token")
	}

	service := app.NewQuizService(quizRepo, store, sessions,
		app.WithPassingScore(cfg.PassingScoreOr(grading.DefaultPassingScore)))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", healthz)
	transport.NewHandler(service).Register(mux)
	mux.HandleFunc("GET /ws/play", transport.NewWSHandler(service).ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz service on :%s", finalPort)
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func healthz(w http.ResponseWriter, r *http.Request) {
	if _, err := w.Write([]byte("ok")); err != nil {
		log.Printf("write healthz: %v", err)
	}
}

// sampleQuizzes seeds the in-memory store when no Postgres URL is configured.
func sampleQuizzes() map[string]domain.Quiz {
	created := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	return map[string]domain.Quiz{
		"sample-fire-safety": {
			ID:        "sample-fire-safety",
			Title:     "Fire Safety Basics",
			Timer:     30,
			CreatedAt: created,
			UpdatedAt: created,
			Questions: []domain.Question{
				{
					ID:            "sample-q1",
					Question:      "What is the national emergency hotline?",
					Lesson:        "Emergency Hotlines",
					Options:       []string{"117", "911", "143", "8888"},
					CorrectAnswer: 1,
					Explanation:   "911 replaced 117 as the national emergency number.",
				},
				{
					ID:            "sample-q2",
					Question:      "Your clothes catch fire. What do you do?",
					Lesson:        "Fire Safety",
					Options:       []string{"Run for help", "Stop, drop and roll", "Fan the flames"},
					CorrectAnswer: 1,
				},
			},
		},
	}
}
