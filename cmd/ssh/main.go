// Command ssh serves the training menu over SSH to allow-listed keys.
package main

import (
	"context"
	"fmt"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"signal-forest/internal/cache"
	"signal-forest/internal/config"
	"signal-forest/internal/db"
	"signal-forest/internal/logger"
	"signal-forest/internal/ml/training"
	"signal-forest/internal/provider"
	"signal-forest/internal/repository"
	"signal-forest/internal/service"
	"signal-forest/internal/tui"
	"signal-forest/pkg/tracing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/trace"
	gossh "golang.org/x/crypto/ssh"
)

type ctxKey string

const sshFingerprintKey ctxKey = "ssh_fingerprint"

var (
	loadEnvFunc          = godotenv.Load
	initLoggerFunc       = logger.InitLogger
	loadConfigFunc       = config.Load
	initPostgresFunc     = db.InitPostgres
	initRedisFunc        = cache.InitRedis
	initTracerFunc       = tracing.InitTracer
	newDailyProviderFunc = func(tracer trace.Tracer) service.DailyProvider {
		return provider.NewStooqProvider(tracer)
	}
	newWishServerFunc = wish.NewServer
	setupSignalNotify = ossignal.Notify
	waitForSignalFunc = func(quit <-chan os.Signal) { <-quit }
)

func main() {
	_ = loadEnvFunc()
	initLoggerFunc("signal-forest-ssh")
	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := initPostgresFunc(ctx, cfg.DatabaseURL); err != nil {
		logger.Warn().Err(err).Msg("postgres unavailable, runs will not be recorded")
	}
	defer db.Close()
	if err := initRedisFunc(ctx, cfg.RedisURL); err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, running without cache")
	}
	defer cache.Close()

	tp, tracer, err := initTracerFunc(ctx, "signal-forest-ssh")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize tracer")
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("error shutting down tracer provider")
		}
	}()

	var (
		candleRepo service.CandleRepository
		runStore   training.RunStore
		redisCache service.RedisClient
	)
	if db.Pool != nil {
		candleRepo = repository.NewCandleRepository(db.Pool, tracer)
		runStore = repository.NewRunRepository(db.Pool, tracer)
	}
	if cache.Client != nil {
		redisCache = cache.Client
	}

	marketData := service.NewMarketDataService(tracer, newDailyProviderFunc(tracer), candleRepo, redisCache)
	defaults := training.FromAppConfig(cfg)
	// One service for every session, so concurrent runs get ErrRunInProgress.
	trainer := training.NewService(tracer, marketData, runStore, defaults)
	runner := tui.ServiceRunner(trainer)

	if len(cfg.SSHAllowedFingerprints) == 0 {
		logger.Warn().Msg("SSH_ALLOWED_FINGERPRINTS not set, every key will be rejected")
	}

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.SSHPort)
	srv, err := newWishServerFunc(
		wish.WithAddress(addr),
		wish.WithHostKeyPath(cfg.SSHHostKeyPath),
		wish.WithPublicKeyAuth(fingerprintAuth(cfg.SSHAllowedFingerprints)),
		wish.WithMiddleware(
			bubbletea.Middleware(func(s ssh.Session) (tea.Model, []tea.ProgramOption) {
				model := tui.NewModel(s.Context(), "forest - "+defaults.Symbol, runner)
				pty, _, _ := s.Pty()
				model.SetSize(pty.Window.Width, pty.Window.Height)
				return model, []tea.ProgramOption{tea.WithAltScreen()}
			}),
			logging.Middleware(),
		),
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create SSH server")
	}

	if srv != nil {
		go func() {
			logger.Info().Str("addr", addr).Msg("SSH server listening")
			if err := srv.ListenAndServe(); err != nil && err != ssh.ErrServerClosed {
				logger.Error().Err(err).Msg("SSH server stopped")
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	logger.Info().Msg("shutting down SSH server")

	cancel()

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("SSH server shutdown error")
		}
	}

	logger.Info().Msg("SSH server exited")
}

// fingerprintAuth accepts keys whose SHA256 fingerprint is in allowed.
func fingerprintAuth(allowed []string) func(ctx ssh.Context, key ssh.PublicKey) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, fp := range allowed {
		set[fp] = struct{}{}
	}
	return func(ctx ssh.Context, key ssh.PublicKey) bool {
		fingerprint := gossh.FingerprintSHA256(key)
		if _, ok := set[fingerprint]; !ok {
			logger.Warn().Str("fingerprint", fingerprint).Msg("SSH auth denied")
			return false
		}
		if ctx != nil {
			ctx.SetValue(sshFingerprintKey, fingerprint)
		}
		logger.Info().Str("fingerprint", fingerprint).Msg("SSH auth accepted")
		return true
	}
}
