package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "console", cfg.Logger.Format)
	assert.Equal(t, "kxs-osint", cfg.Logger.ServiceName)
	assert.Equal(t, "gemini-2.5-flash", cfg.Classifier.Model)
	assert.Equal(t, 60*time.Second, cfg.Classifier.APITimeout)
	assert.Equal(t, 1.0, cfg.Classifier.RateLimit)
	assert.Equal(t, 0, cfg.Search.Retries)
	assert.Equal(t, ".", cfg.Report.OutputDir)
	assert.Empty(t, cfg.Database.URL, "no database by default")
}

func TestDefaultConfigValidates(t *testing.T) {
	t.Parallel()
	require.NoError(t, NewDefaultConfig().Validate())
}

func TestNewConfigFromViper(t *testing.T) {
	t.Run("binds the API key environment variable", func(t *testing.T) {
		t.Setenv("KXS_CLASSIFIER_API_KEY", "secret-from-env")

		v := viper.New()
		SetDefaults(v)

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, "secret-from-env", cfg.Classifier.APIKey)
	})

	t.Run("binds the database URL environment variable", func(t *testing.T) {
		t.Setenv("KXS_DATABASE_URL", "postgres://localhost/kxs")

		v := viper.New()
		SetDefaults(v)

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, "postgres://localhost/kxs", cfg.Database.URL)
	})

	t.Run("rejects invalid values", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("classifier.rate_limit", 0)

		_, err := NewConfigFromViper(v)
		require.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	t.Parallel()

	t.Run("rejects non-positive timeout", func(t *testing.T) {
		t.Parallel()
		cfg := NewDefaultConfig()
		cfg.Classifier.APITimeout = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects negative retries", func(t *testing.T) {
		t.Parallel()
		cfg := NewDefaultConfig()
		cfg.Search.Retries = -1
		assert.Error(t, cfg.Validate())
	})
}
