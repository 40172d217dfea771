package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "")
	t.Setenv("AI_TIMEOUT", "")
	t.Setenv("BCRYPT_COST", "")
	t.Setenv("PROFILE_TABLE", "")
	t.Setenv("AUTH_TABLE", "")
	t.Setenv("JWT_ALGORITHM", "")

	cfg := Load()

	assert.Equal(t, BackendPostgres, cfg.StoreBackend)
	assert.Equal(t, "users-data", cfg.ProfileTable)
	assert.Equal(t, "users-auth", cfg.AuthTable)
	assert.Equal(t, "HS256", cfg.JWTAlgorithm)
	assert.Equal(t, 30*time.Minute, cfg.JWTAccessExpiry)
	assert.Equal(t, 60*time.Second, cfg.AITimeout)
	assert.Equal(t, bcrypt.DefaultCost, cfg.BcryptCost)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "DynamoDB")
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "5")
	t.Setenv("AI_TIMEOUT", "15s")
	t.Setenv("JWT_ALGORITHM", "hs512")
	t.Setenv("BCRYPT_COST", "4")

	cfg := Load()

	assert.Equal(t, BackendDynamoDB, cfg.StoreBackend)
	assert.Equal(t, 5*time.Minute, cfg.JWTAccessExpiry)
	assert.Equal(t, 15*time.Second, cfg.AITimeout)
	assert.Equal(t, "HS512", cfg.JWTAlgorithm)
	assert.Equal(t, 4, cfg.BcryptCost)
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "-3")
	t.Setenv("AI_TIMEOUT", "soon")

	cfg := Load()

	assert.Equal(t, 30*time.Minute, cfg.JWTAccessExpiry)
	assert.Equal(t, 60*time.Second, cfg.AITimeout)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			StoreBackend: BackendMemory,
			JWTSecret:    "k",
			JWTAlgorithm: "HS256",
			BcryptCost:   bcrypt.MinCost,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "ok", mutate: func(c *Config) {}},
		{name: "missing secret", mutate: func(c *Config) { c.JWTSecret = "" }, wantErr: "JWT_SECRET"},
		{name: "bad algorithm", mutate: func(c *Config) { c.JWTAlgorithm = "RS256" }, wantErr: "JWT_ALGORITHM"},
		{name: "postgres without password", mutate: func(c *Config) { c.StoreBackend = BackendPostgres }, wantErr: "DB_PASSWORD"},
		{name: "unknown backend", mutate: func(c *Config) { c.StoreBackend = "redis" }, wantErr: "STORE_BACKEND"},
		{name: "cost too high", mutate: func(c *Config) { c.BcryptCost = 99 }, wantErr: "BCRYPT_COST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
