package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"os"
	"testing"
	"time"

	"signal-forest/internal/config"
	"signal-forest/internal/domain"
	"signal-forest/internal/service"

	"github.com/charmbracelet/ssh"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	gossh "golang.org/x/crypto/ssh"
)

func TestMainBootstrap(t *testing.T) {
	restore, opts := stubSSHDeps()
	defer restore()

	done := make(chan struct{})
	go func() {
		main()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("main did not exit")
	}
	if *opts == 0 {
		t.Fatal("expected the wish server to be configured")
	}
}

func TestFingerprintAuth(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	key, err := gossh.NewPublicKey(pub)
	if err != nil {
		t.Fatalf("NewPublicKey: %v", err)
	}
	fp := gossh.FingerprintSHA256(key)

	if !fingerprintAuth([]string{"SHA256:other", fp})(nil, key) {
		t.Fatal("expected allow-listed key to be accepted")
	}
	if fingerprintAuth([]string{"SHA256:other"})(nil, key) {
		t.Fatal("expected unknown key to be rejected")
	}
	if fingerprintAuth(nil)(nil, key) {
		t.Fatal("an empty allow list must reject every key")
	}
}

func stubSSHDeps() (func(), *int) {
	origLoadEnv := loadEnvFunc
	origInitLogger := initLoggerFunc
	origLoadConfig := loadConfigFunc
	origInitPostgres := initPostgresFunc
	origInitRedis := initRedisFunc
	origInitTracer := initTracerFunc
	origNewProvider := newDailyProviderFunc
	origNewWishServer := newWishServerFunc
	origSetupSignal := setupSignalNotify
	origWait := waitForSignalFunc

	optCount := 0
	loadEnvFunc = func(...string) error { return nil }
	initLoggerFunc = func(string) {}
	loadConfigFunc = func() *config.Config {
		return &config.Config{
			SSHPort:        2222,
			SSHHostKeyPath: ".ssh/test_key",
			MLSymbol:       "AAPL",
		}
	}
	initPostgresFunc = func(context.Context, string) error { return nil }
	initRedisFunc = func(context.Context, string) error { return nil }
	initTracerFunc = func(ctx context.Context, component string) (*sdktrace.TracerProvider, trace.Tracer, error) {
		tp := sdktrace.NewTracerProvider()
		return tp, tp.Tracer("test"), nil
	}
	newDailyProviderFunc = func(trace.Tracer) service.DailyProvider { return stubDailyProvider{} }
	newWishServerFunc = func(ops ...ssh.Option) (*ssh.Server, error) {
		optCount = len(ops)
		return nil, nil
	}
	setupSignalNotify = func(c chan<- os.Signal, sig ...os.Signal) {}
	waitForSignalFunc = func(<-chan os.Signal) {}

	return func() {
		loadEnvFunc = origLoadEnv
		initLoggerFunc = origInitLogger
		loadConfigFunc = origLoadConfig
		initPostgresFunc = origInitPostgres
		initRedisFunc = origInitRedis
		initTracerFunc = origInitTracer
		newDailyProviderFunc = origNewProvider
		newWishServerFunc = origNewWishServer
		setupSignalNotify = origSetupSignal
		waitForSignalFunc = origWait
	}, &optCount
}

type stubDailyProvider struct{}

func (stubDailyProvider) FetchDaily(ctx context.Context, symbol string, from, to time.Time) ([]*domain.Candle, error) {
	return nil, nil
}
