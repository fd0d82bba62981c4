package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/tours")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.False(t, cfg.IsProduction)
	assert.Equal(t, 15*time.Minute, cfg.JWTAccessTokenTTL)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, "BDT", cfg.Gateway.Currency)
	assert.Equal(t, 30*time.Second, cfg.Gateway.Timeout)
	assert.Empty(t, cfg.RedisAddr)
}

func TestLoadGatewaySettings(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_ENV", "prod")
	t.Setenv("SSL_STORE_ID", "store")
	t.Setenv("SSL_STORE_PASS", "pass")
	t.Setenv("SSL_PAYMENT_API", "https://sandbox.example/gwprocess/v4/api.php")
	t.Setenv("GATEWAY_TIMEOUT", "5s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction)
	assert.Equal(t, "store", cfg.Gateway.StoreID)
	assert.Equal(t, "pass", cfg.Gateway.StorePassword)
	assert.Equal(t, 5*time.Second, cfg.Gateway.Timeout)
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("DB_DSN", "")
	t.Setenv("JWT_SECRET", "secret")

	_, err := Load()
	assert.ErrorContains(t, err, "DB_DSN")
}

func TestLoadInvalidValues(t *testing.T) {
	setRequired(t)
	t.Setenv("BCRYPT_COST", "twelve")

	_, err := Load()
	assert.ErrorContains(t, err, "BCRYPT_COST")
}
