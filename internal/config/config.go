// Package config は環境変数からアプリケーション設定を読み込みます。
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config はプロセス全体の設定です。
type Config struct {
	Gemini GeminiConfig
	Store  StoreConfig
	HTTP   HTTPConfig
	Export ExportConfig

	LogLevel string `env:"LOG_LEVEL" env-default:"info" env-description:"debug, info, warn or error"`
}

// GeminiConfig は生成モデルの設定です。
type GeminiConfig struct {
	APIKey            string        `env:"GEMINI_API_KEY" env-description:"Gemini API key"`
	Model             string        `env:"GEMINI_MODEL" env-default:"gemini-2.5-flash-image-preview"`
	EditTimeout       time.Duration `env:"EDIT_TIMEOUT" env-default:"120s"`
	ReferenceCacheTTL time.Duration `env:"REFERENCE_CACHE_TTL" env-default:"30m"`
	FetchTimeout      time.Duration `env:"REFERENCE_FETCH_TIMEOUT" env-default:"30s"`
}

// StoreConfig はセッションの保存先の設定です。
type StoreConfig struct {
	Driver      string `env:"STORE_DRIVER" env-default:"sqlite" env-description:"sqlite, postgres or memory"`
	SQLitePath  string `env:"SQLITE_PATH" env-default:"data/studio.db"`
	DatabaseURL string `env:"DATABASE_URL"`
}

// HTTPConfig は API サーバーの設定です。
type HTTPConfig struct {
	Addr           string        `env:"HTTP_ADDR" env-default:":8080"`
	MaxUploadBytes int64         `env:"MAX_UPLOAD_BYTES" env-default:"20971520"`
	ShutdownGrace  time.Duration `env:"SHUTDOWN_GRACE" env-default:"10s"`
}

// ExportConfig は画像の書き出し先の設定です。
// MINIO_ENDPOINT、EXPORT_URI の順に優先し、どちらも空の場合はローカルに書き出します。
type ExportConfig struct {
	LocalDir        string        `env:"EXPORT_DIR" env-default:"exports"`
	RemoteURI       string        `env:"EXPORT_URI" env-description:"gs://bucket/prefix or s3://bucket/prefix"`
	MinioEndpoint   string        `env:"MINIO_ENDPOINT"`
	MinioAccessKey  string        `env:"MINIO_ACCESS_KEY"`
	MinioSecretKey  string        `env:"MINIO_SECRET_KEY"`
	MinioBucket     string        `env:"MINIO_BUCKET" env-default:"facade-studio"`
	MinioRegion     string        `env:"MINIO_REGION"`
	MinioUseSSL     bool          `env:"MINIO_USE_SSL" env-default:"false"`
	MinioPresignTTL time.Duration `env:"MINIO_PRESIGN_TTL" env-default:"0s"`
}

// UseMinio は MinIO への書き出しが設定されているかを返します。
func (e ExportConfig) UseMinio() bool {
	return strings.TrimSpace(e.MinioEndpoint) != ""
}

// UseRemote は gs:// / s3:// への書き出しが設定されているかを返します。
func (e ExportConfig) UseRemote() bool {
	return strings.TrimSpace(e.RemoteURI) != ""
}

// DSN は Driver に対応する接続先を返します。
func (s StoreConfig) DSN() string {
	switch strings.ToLower(s.Driver) {
	case "postgres", "postgresql", "pgx":
		return s.DatabaseURL
	default:
		return s.SQLitePath
	}
}

// Load は .env があれば読み込んだうえで、環境変数から設定を組み立てます。
func Load() (*Config, error) {
	// .env が無いのは正常系
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read config from env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate は組み合わせとして成立しない設定を検出します。
func (c *Config) Validate() error {
	switch strings.ToLower(c.Store.Driver) {
	case "sqlite", "memory":
	case "postgres", "postgresql", "pgx":
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=%s", c.Store.Driver)
		}
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.Store.Driver)
	}
	if c.Gemini.EditTimeout <= 0 {
		return fmt.Errorf("EDIT_TIMEOUT must be positive")
	}
	if c.Export.UseMinio() && (c.Export.MinioAccessKey == "" || c.Export.MinioSecretKey == "") {
		return fmt.Errorf("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required when MINIO_ENDPOINT is set")
	}
	if uri := c.Export.RemoteURI; c.Export.UseRemote() && !strings.HasPrefix(uri, "gs://") && !strings.HasPrefix(uri, "s3://") {
		return fmt.Errorf("EXPORT_URI must start with gs:// or s3://: %q", uri)
	}
	return nil
}

// RequireAPIKey は生成モデルを使うコマンドで API キーを要求します。
func (c *Config) RequireAPIKey() error {
	if strings.TrimSpace(c.Gemini.APIKey) == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	return nil
}

// SetupLogger は LOG_LEVEL に従って標準エラー出力へのテキストロガーを既定に設定します。
func SetupLogger(level string) {
	var lv slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lv = slog.LevelDebug
	case "warn", "warning":
		lv = slog.LevelWarn
	case "error":
		lv = slog.LevelError
	default:
		lv = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lv})))
}
