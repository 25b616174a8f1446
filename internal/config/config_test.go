package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/database"
	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/models/tetris"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("USER", "tester")

	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, tetris.DefaultBoardWidth, cfg.Width)
	assert.Equal(t, tetris.DefaultBoardHeight, cfg.Height)
	assert.Equal(t, int64(0), cfg.Seed)
	assert.Equal(t, 200*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, "tester", cfg.User)
	assert.Empty(t, cfg.Listen)
	assert.Equal(t, database.DriverSQLite, cfg.DatabaseDriver)
	assert.True(t, cfg.PersistResults())
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Equal(t, "blockfall.log", cfg.LogFile)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("BLOCKFALL_WIDTH", "12")
	t.Setenv("BLOCKFALL_HEIGHT", "24")
	t.Setenv("BLOCKFALL_SEED", "42")
	t.Setenv("BLOCKFALL_TICK_INTERVAL", "150ms")
	t.Setenv("BLOCKFALL_USER", "alice")
	t.Setenv("BLOCKFALL_DATABASE_DRIVER", "POSTGRES")
	t.Setenv("BLOCKFALL_DATABASE_URL", "postgres://localhost/blockfall?sslmode=disable")
	t.Setenv("BLOCKFALL_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.Width)
	assert.Equal(t, 24, cfg.Height)
	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, 150*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, "alice", cfg.User)
	assert.Equal(t, database.DriverPostgres, cfg.DatabaseDriver)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)

	game := cfg.GameConfig()
	assert.Equal(t, 12, game.Width)
	assert.Equal(t, 24, game.Height)
	assert.Equal(t, int64(42), game.Seed)
	assert.Equal(t, 150*time.Millisecond, game.TickInterval)
}

func TestLoad_Overrides(t *testing.T) {
	v := New()
	v.Set(KeyWidth, 8)
	v.Set(KeyDatabaseURL, "")

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Width)
	assert.False(t, cfg.PersistResults())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Width:          10,
			Height:         20,
			TickInterval:   time.Second,
			User:           "u",
			DatabaseDriver: database.DriverSQLite,
			DatabaseURL:    ":memory:",
		}
	}
	require.NoError(t, valid().Validate())

	small := valid()
	small.Height = 3
	assert.ErrorIs(t, small.Validate(), tetris.ErrInvalidSize)

	noTick := valid()
	noTick.TickInterval = 0
	assert.ErrorIs(t, noTick.Validate(), ErrInvalidTickInterval)

	noUser := valid()
	noUser.User = ""
	assert.Error(t, noUser.Validate())

	badDriver := valid()
	badDriver.DatabaseDriver = "mysql"
	assert.ErrorIs(t, badDriver.Validate(), database.ErrUnsupportedDriver)

	// 保存しない場合はドライバー名を見ない
	badDriver.DatabaseURL = ""
	assert.NoError(t, badDriver.Validate())
}

func TestLoadEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("BLOCKFALL_TEST_FROM_DOTENV=yes\n"), 0o644))
	t.Setenv("BLOCKFALL_TEST_FROM_DOTENV", "")
	os.Unsetenv("BLOCKFALL_TEST_FROM_DOTENV")

	t.Setenv("APP_ENV", "production")
	LoadEnv(path)
	assert.Empty(t, os.Getenv("BLOCKFALL_TEST_FROM_DOTENV"))

	t.Setenv("APP_ENV", "development")
	LoadEnv(path)
	assert.Equal(t, "yes", os.Getenv("BLOCKFALL_TEST_FROM_DOTENV"))

	// ファイルがなくても落ちない
	LoadEnv(filepath.Join(t.TempDir(), "missing.env"))
}
