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
	"golang.org/x/sync/errgroup"

	"quizhub/internal/config"
	"quizhub/internal/domain"
	"quizhub/internal/generator"
	"quizhub/internal/hub"
	"quizhub/internal/infra/historylog"
	historymem "quizhub/internal/infra/historylog/memory"
	historypg "quizhub/internal/infra/historylog/postgres"
	mirrorredis "quizhub/internal/mirror/redis"
	"quizhub/internal/transport/ws"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz hub",
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

	var history historylog.Recorder
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		history = historypg.New(pool)
	} else {
		history = historymem.New(cfg.History.MemoryCapacity)
	}

	var mirror hub.Mirror
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		mirror = mirrorredis.NewPublisher(redisClient, cfg.Redis.Channel)
	}

	hubCfg := hub.DefaultConfig()
	hubCfg.WinnerDisplayDuration = config.TTLDuration(cfg.Hub.WinnerDisplayDuration, hubCfg.WinnerDisplayDuration)
	hubCfg.PostLockHandoffDelay = config.TTLDuration(cfg.Hub.PostLockHandoffDelay, hubCfg.PostLockHandoffDelay)
	if cfg.Hub.DefaultDifficulty != "" {
		hubCfg.DefaultDifficulty = domain.Difficulty(cfg.Hub.DefaultDifficulty)
	}

	adapter := ws.New(cfg.Server.AllowedOrigins)
	h := hub.New(hubCfg, generator.New(), adapter, history, mirror)
	adapter.SetCore(h)
	h.Start()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", adapter.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("starting quiz hub on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-stop:
			log.Println("shutting down server...")
		case <-gctx.Done():
			log.Println("context canceled, shutting down server...")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
