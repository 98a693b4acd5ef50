package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 10.0, cfg.Costs.Suite)
	assert.Equal(t, 15.0, cfg.Costs.Sequence)
	assert.Equal(t, 0.5, cfg.Costs.Message)
	assert.Equal(t, 25.0, cfg.SignupCredits)
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"port": 9090,
		"database_url": "postgres://localhost/blueprints",
		"costs": {"suite": 20}
	}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "postgres://localhost/blueprints", cfg.DatabaseURL)
	assert.Equal(t, 20.0, cfg.Costs.Suite)
	// Unset fields keep their defaults.
	assert.Equal(t, 15.0, cfg.Costs.Sequence)
	assert.Equal(t, 0.5, cfg.Costs.Message)
}

func TestLoadAppliesExplicitZeroCost(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"costs": {"message": 0},
		"signup_credits": 0
	}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	// An explicit zero means free, not "use the default".
	assert.Equal(t, 0.0, cfg.Costs.Message)
	assert.Equal(t, 0.0, cfg.SignupCredits)
	assert.Equal(t, 10.0, cfg.Costs.Suite)
}

func TestLoadRejectsInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg := Default()
	cfg.Port = -1
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsNegativeCosts(t *testing.T) {
	cfg := Default()
	cfg.Costs.Message = -0.5
	assert.Error(t, cfg.Validate())
}

func TestNewJWTConfig(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("JWT_EXPIRATION_HOURS", "48")

	cfg, err := NewJWTConfig()
	require.NoError(t, err)
	assert.Equal(t, "test-secret", cfg.Secret)
	assert.Equal(t, 48.0, cfg.Lifetime.Hours())
}

func TestNewJWTConfigRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := NewJWTConfig()
	assert.Error(t, err)
}

func TestPasswordHashAndVerify(t *testing.T) {
	t.Setenv("BCRYPT_COST", "10")
	t.Setenv("PASSWORD_PEPPER", "pepper")

	cfg, err := NewPasswordConfig()
	require.NoError(t, err)

	hash, err := cfg.HashPassword("hunter2")
	require.NoError(t, err)
	assert.True(t, cfg.VerifyPassword("hunter2", hash))
	assert.False(t, cfg.VerifyPassword("hunter3", hash))

	// A hash made with a pepper must not verify without it.
	unpeppered := &PasswordConfig{BcryptCost: 10}
	assert.False(t, unpeppered.VerifyPassword("hunter2", hash))
}

func TestNewPasswordConfigRejectsOutOfRangeCost(t *testing.T) {
	t.Setenv("BCRYPT_COST", "4")

	_, err := NewPasswordConfig()
	assert.Error(t, err)
}
