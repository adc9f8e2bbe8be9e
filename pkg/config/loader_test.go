package config_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwellhq/inkwell/pkg/config"
)

// Each test declares its own struct type. The loader caches by type, so a
// fresh type means a fresh parse regardless of what other tests did.

func TestLoadFromEnvironment(t *testing.T) {
	type serverConfig struct {
		Addr string `env:"TEST_SERVER_ADDR"`
		Port int    `env:"TEST_SERVER_PORT"`
	}

	t.Setenv("TEST_SERVER_ADDR", "0.0.0.0")
	t.Setenv("TEST_SERVER_PORT", "8088")

	var cfg serverConfig
	require.NoError(t, config.Load(&cfg))

	assert.Equal(t, "0.0.0.0", cfg.Addr)
	assert.Equal(t, 8088, cfg.Port)
}

func TestLoadAppliesDefaults(t *testing.T) {
	type sweepConfig struct {
		Interval string `env:"TEST_SWEEP_INTERVAL" envDefault:"1h"`
		Batch    int    `env:"TEST_SWEEP_BATCH" envDefault:"100"`
	}

	var cfg sweepConfig
	require.NoError(t, config.Load(&cfg))

	assert.Equal(t, "1h", cfg.Interval)
	assert.Equal(t, 100, cfg.Batch)
}

func TestLoadRequiredMissing(t *testing.T) {
	type paymentConfig struct {
		APIKey string `env:"TEST_PAYMENT_API_KEY,required"`
	}

	var cfg paymentConfig
	err := config.Load(&cfg)

	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrParsingConfig)
}

func TestLoadNilPointer(t *testing.T) {
	type anyConfig struct {
		Value string `env:"TEST_ANY_VALUE"`
	}

	var cfg *anyConfig
	assert.ErrorIs(t, config.Load(cfg), config.ErrNilPointer)
}

func TestLoadCachesFirstParse(t *testing.T) {
	type mailConfig struct {
		From string `env:"TEST_MAIL_FROM"`
	}

	t.Setenv("TEST_MAIL_FROM", "hello@inkwell.example")

	var first mailConfig
	require.NoError(t, config.Load(&first))
	require.Equal(t, "hello@inkwell.example", first.From)

	// Later environment changes are invisible; every caller gets the
	// snapshot taken on first parse.
	t.Setenv("TEST_MAIL_FROM", "other@inkwell.example")

	var second mailConfig
	require.NoError(t, config.Load(&second))
	assert.Equal(t, "hello@inkwell.example", second.From)
}

func TestLoadConcurrentCallersSeeOneValue(t *testing.T) {
	type workerConfig struct {
		Pool int `env:"TEST_WORKER_POOL" envDefault:"8"`
	}

	const callers = 16
	results := make([]workerConfig, callers)

	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = config.Load(&results[i])
		}()
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, 8, got.Pool)
	}
}
