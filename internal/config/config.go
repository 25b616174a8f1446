package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/database"
	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/models/tetris"
	gameservice "github.com/progate-hackathon-strawberry-flavor/blockfall/internal/services/tetris"
)

// EnvPrefix は環境変数の接頭辞です。例: BLOCKFALL_TICK_INTERVAL=150ms
const EnvPrefix = "BLOCKFALL"

// 設定キー。cobraのフラグ名と同じです。
const (
	KeyWidth          = "width"
	KeyHeight         = "height"
	KeySeed           = "seed"
	KeyTickInterval   = "tick-interval"
	KeyUser           = "user"
	KeyListen         = "listen"
	KeyDatabaseDriver = "database-driver"
	KeyDatabaseURL    = "database-url"
	KeyAllowedOrigins = "allowed-origins"
	KeyLogFile        = "log-file"
)

// ErrInvalidTickInterval は落下間隔が0以下の場合に返されます。
var ErrInvalidTickInterval = errors.New("config: tick-interval must be positive")

// Config はアプリケーション全体の設定です。
type Config struct {
	Width          int
	Height         int
	Seed           int64
	TickInterval   time.Duration
	User           string
	Listen         string // 空ならHTTPサーバーを起動しない
	DatabaseDriver string
	DatabaseURL    string // 空なら結果を保存しない
	AllowedOrigins []string
	LogFile        string
}

// LoadEnv は .env ファイルを環境変数に読み込みます。
// APP_ENV=production の場合は何もしません。ファイルがなくてもエラーにはしません。
func LoadEnv(filenames ...string) {
	if os.Getenv("APP_ENV") == "production" {
		return
	}
	if err := godotenv.Load(filenames...); err != nil {
		log.Printf("warning: Error loading .env file (this is fine in production): %v", err)
	}
}

// New はデフォルト値と環境変数の設定を済ませた viper インスタンスを返します。
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// SetDefaults は各キーのデフォルト値を設定します。
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyWidth, tetris.DefaultBoardWidth)
	v.SetDefault(KeyHeight, tetris.DefaultBoardHeight)
	v.SetDefault(KeySeed, 0)
	v.SetDefault(KeyTickInterval, gameservice.DefaultTickInterval)
	v.SetDefault(KeyUser, defaultUser())
	v.SetDefault(KeyListen, "")
	v.SetDefault(KeyDatabaseDriver, database.DriverSQLite)
	v.SetDefault(KeyDatabaseURL, "blockfall.db")
	v.SetDefault(KeyAllowedOrigins, []string{"http://localhost:3000"})
	v.SetDefault(KeyLogFile, "blockfall.log")
}

func defaultUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "player"
}

// Load は viper から設定を読み出して検証します。
//
// Parameters:
//   v : フラグ・環境変数・デフォルト値が設定された viper インスタンス
// Returns:
//   *Config: 検証済みの設定
//   error: 値が不正な場合
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Width:          v.GetInt(KeyWidth),
		Height:         v.GetInt(KeyHeight),
		Seed:           v.GetInt64(KeySeed),
		TickInterval:   v.GetDuration(KeyTickInterval),
		User:           strings.TrimSpace(v.GetString(KeyUser)),
		Listen:         v.GetString(KeyListen),
		DatabaseDriver: strings.ToLower(v.GetString(KeyDatabaseDriver)),
		DatabaseURL:    v.GetString(KeyDatabaseURL),
		AllowedOrigins: splitList(v.GetStringSlice(KeyAllowedOrigins)),
		LogFile:        v.GetString(KeyLogFile),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate は設定値の整合性を確認します。
func (c *Config) Validate() error {
	if c.Width < tetris.FrameSize || c.Height < tetris.FrameSize {
		return fmt.Errorf("ボードの大きさが不正です (%dx%d): %w", c.Width, c.Height, tetris.ErrInvalidSize)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("落下間隔が不正です (%s): %w", c.TickInterval, ErrInvalidTickInterval)
	}
	if c.User == "" {
		return errors.New("config: user must not be empty")
	}
	if c.PersistResults() {
		switch c.DatabaseDriver {
		case database.DriverPostgres, database.DriverSQLite:
		default:
			return fmt.Errorf("データベースドライバー %q は使用できません: %w", c.DatabaseDriver, database.ErrUnsupportedDriver)
		}
	}
	return nil
}

// PersistResults は結果をデータベースに保存するかどうかを返します。
func (c *Config) PersistResults() bool {
	return c.DatabaseURL != ""
}

// GameConfig はゲーム1回分の設定に変換します。
func (c *Config) GameConfig() gameservice.GameConfig {
	return gameservice.GameConfig{
		Width:        c.Width,
		Height:       c.Height,
		Seed:         c.Seed,
		TickInterval: c.TickInterval,
	}
}

// splitList は "a,b c" のような値をカンマと空白で分割します。
func splitList(values []string) []string {
	var out []string
	for _, value := range values {
		for _, item := range strings.FieldsFunc(value, func(r rune) bool { return r == ',' || r == ' ' }) {
			out = append(out, item)
		}
	}
	return out
}
