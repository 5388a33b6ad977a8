package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	app "body-scan/internal/application"
)

// Duration time.Duration в виде строки ("33ms", "2s") в TOML.
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

type ScannerConfig struct {
	FrameInterval   Duration `toml:"frame_interval"`
	MaxReadFailures int      `toml:"max_read_failures"`
}

type EstimatorConfig struct {
	URL            string   `toml:"url"`
	PollInterval   Duration `toml:"poll_interval"`
	MaxAttempts    int      `toml:"max_attempts"`
	RequestTimeout Duration `toml:"request_timeout"`
}

type CameraConfig struct {
	Device   string `toml:"device"`    // ID или путь, пусто для камеры по умолчанию
	LockDir  string `toml:"lock_dir"`  // каталог lock-файлов камер
	StillDir string `toml:"still_dir"` // каталог кадров вместо живой камеры
	Width    int    `toml:"width"`
	Height   int    `toml:"height"`
}

type TelegramConfig struct {
	Token  string `toml:"token"`
	ChatID int64  `toml:"chat_id"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type ExportConfig struct {
	Dir string `toml:"dir"`
}

type Config struct {
	Scanner     ScannerConfig         `toml:"scanner"`
	Rules       app.RuleConfig        `toml:"rules"`
	Accumulator app.AccumulatorConfig `toml:"accumulator"`
	Capture     app.CaptureConfig     `toml:"capture"`
	Estimator   EstimatorConfig       `toml:"estimator"`
	Camera      CameraConfig          `toml:"camera"`
	Telegram    TelegramConfig        `toml:"telegram"`
	Log         LogConfig             `toml:"log"`
	Export      ExportConfig          `toml:"export"`
}

// Default конфигурация без файла и переменных окружения
func Default() *Config {
	loop := app.DefaultLoopConfig()
	engine := app.DefaultEngineConfig()

	return &Config{
		Scanner: ScannerConfig{
			FrameInterval:   Duration(loop.FrameInterval),
			MaxReadFailures: loop.MaxReadFailures,
		},
		Rules:       app.DefaultRuleConfig(),
		Accumulator: app.DefaultAccumulatorConfig(),
		Capture:     app.DefaultCaptureConfig(),
		Estimator: EstimatorConfig{
			URL:            "http://127.0.0.1:8500",
			PollInterval:   Duration(engine.PollInterval),
			MaxAttempts:    engine.MaxAttempts,
			RequestTimeout: Duration(2 * time.Second),
		},
		Camera: CameraConfig{
			LockDir: os.TempDir(),
			Width:   1280,
			Height:  720,
		},
		Log:    LogConfig{Level: "info"},
		Export: ExportConfig{Dir: "scans"},
	}
}

// Load собирает конфигурацию: значения по умолчанию, TOML-файл (если задан), .env и окружение
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()

		dec := toml.NewDecoder(f)
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("decode config %s: %w", path, err)
		}
	}

	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("TELEGRAM_TOKEN"); v != "" {
		c.Telegram.Token = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("TELEGRAM_CHAT_ID: %w", err)
		}
		c.Telegram.ChatID = id
	}
	if v := os.Getenv("SCANNER_DEVICE"); v != "" {
		c.Camera.Device = v
	}
	if v := os.Getenv("POSE_ENGINE_URL"); v != "" {
		c.Estimator.URL = v
	}
	if v := os.Getenv("SCANNER_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("SCANNER_EXPORT_DIR"); v != "" {
		c.Export.Dir = v
	}
	return nil
}

// Validate проверяет согласованность порогов
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Scanner.FrameInterval > 0, "scanner.frame_interval must be positive")
	check(c.Scanner.MaxReadFailures >= 0, "scanner.max_read_failures must not be negative")

	r := c.Rules
	check(r.VisibilityThreshold > 0 && r.VisibilityThreshold < 1, "rules.visibility_threshold must be in (0, 1)")
	check(r.FrontMinShoulderSpan > 0, "rules.front_min_shoulder_span must be positive")
	check(r.SideMaxShoulderSpan > 0, "rules.side_max_shoulder_span must be positive")
	check(r.HeadTopMargin >= 0 && r.HeadTopMargin < r.ShoulderBottomLimit,
		"rules.head_top_margin must be below rules.shoulder_bottom_limit")
	check(r.ShoulderBottomLimit <= 1, "rules.shoulder_bottom_limit must not exceed 1")
	check(r.FaceMinY < r.FaceMaxY, "rules.face_min_y must be below rules.face_max_y")
	check(r.FaceCenterTolerance > 0, "rules.face_center_tolerance must be positive")

	a := c.Accumulator
	check(a.Increment > 0, "accumulator.increment must be positive")
	check(a.Decay > a.Increment, "accumulator.decay (%g) must exceed accumulator.increment (%g)", a.Decay, a.Increment)

	check(c.Capture.MaxDimension > 0, "capture.max_dimension must be positive")
	check(c.Capture.JPEGQuality >= 1 && c.Capture.JPEGQuality <= 100, "capture.jpeg_quality must be in [1, 100]")

	check(c.Estimator.URL != "", "estimator.url is required")
	check(c.Estimator.PollInterval > 0, "estimator.poll_interval must be positive")
	check(c.Estimator.MaxAttempts > 0, "estimator.max_attempts must be positive")
	check(c.Estimator.RequestTimeout > 0, "estimator.request_timeout must be positive")

	return errors.Join(errs...)
}

// ScanConfig настройки сервиса сканирования
func (c *Config) ScanConfig() app.ScanConfig {
	return app.ScanConfig{
		DeviceID: c.Camera.Device,
		Loop: app.LoopConfig{
			FrameInterval:   c.Scanner.FrameInterval.Std(),
			MaxReadFailures: c.Scanner.MaxReadFailures,
		},
		Engine: app.EngineConfig{
			PollInterval: c.Estimator.PollInterval.Std(),
			MaxAttempts:  c.Estimator.MaxAttempts,
		},
		Rules:       c.Rules,
		Accumulator: c.Accumulator,
		Capture:     c.Capture,
	}
}

// Redacted копия без секретов, для вывода
func (c *Config) Redacted() *Config {
	out := *c
	if out.Telegram.Token != "" {
		out.Telegram.Token = "***"
	}
	return &out
}

// Encode сериализует конфигурацию в TOML
func (c *Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}
