package container

import (
	"fmt"

	"github.com/rs/zerolog"

	"body-scan/config"
	telegram "body-scan/internal/api"
	app "body-scan/internal/application"
	"body-scan/internal/domain/entity"
	"body-scan/internal/domain/port"
	"body-scan/internal/infrastructure/device"
	"body-scan/internal/infrastructure/imaging"
	"body-scan/internal/infrastructure/pose"
	"body-scan/internal/infrastructure/storage"
	"body-scan/internal/infrastructure/vision"
)

// StillDeviceID ID камеры, проигрывающей каталог кадров.
const StillDeviceID = "still"

type Container struct {
	Config    *config.Config
	Devices   *app.DeviceService
	Operators *app.OperatorService
	Sessions  *storage.MemorySessionRepository
	Exporter  *storage.DirectoryExporter
	Bot       *telegram.Bot // nil, если токен не задан

	camera    port.Camera
	connector port.EstimatorConnector
	encoder   port.ImageEncoder
	logger    zerolog.Logger
}

// New собирает адаптеры по конфигурации. Бот создаётся только при наличии токена.
func New(cfg *config.Config, logger zerolog.Logger) (*Container, error) {
	c := &Container{
		Config:    cfg,
		Operators: app.NewOperatorService(storage.NewMemoryOperatorRepository(), cfg.Telegram.ChatID),
		Sessions:  storage.NewMemorySessionRepository(),
		connector: pose.NewHTTPConnector(cfg.Estimator.URL, cfg.Estimator.RequestTimeout.Std()),
		logger:    logger,
	}

	if cfg.Export.Dir != "" {
		c.Exporter = storage.NewDirectoryExporter(cfg.Export.Dir)
	}

	if vision.Available() {
		c.encoder = vision.NewGoCVEncoder()
	} else {
		c.encoder = imaging.NewEncoder()
	}

	if cfg.Camera.StillDir != "" {
		c.Devices = app.NewDeviceService(device.NewStaticEnumerator(entity.DeviceDescriptor{
			ID:     StillDeviceID,
			Label:  "Still frames",
			Path:   cfg.Camera.StillDir,
			Facing: entity.FacingBack,
		}))
		c.camera = vision.NewStillCamera()
	} else {
		if !vision.Available() {
			logger.Warn().Msg("built without gocv; live cameras cannot be opened, use camera.still_dir")
		}
		c.Devices = app.NewDeviceService(device.NewUdevEnumerator())
		c.camera = device.NewLockedCamera(vision.NewGoCVCamera(cfg.Camera.Width, cfg.Camera.Height), cfg.Camera.LockDir)
	}

	if cfg.Telegram.Token != "" {
		bot, err := telegram.NewBot(cfg.Telegram.Token, c.Operators, c.Devices, logger)
		if err != nil {
			return nil, fmt.Errorf("create telegram bot: %w", err)
		}
		c.Bot = bot
	}

	return c, nil
}

// Handlers получатели запечатанной сессии в порядке вызова
func (c *Container) Handlers() []port.SessionHandler {
	handlers := []port.SessionHandler{c.Sessions}
	if c.Exporter != nil {
		handlers = append(handlers, c.Exporter)
	}
	if c.Bot != nil {
		handlers = append(handlers, c.Bot)
	}
	return handlers
}

// NewScanService сервис одной сессии сканирования
func (c *Container) NewScanService() *app.ScanService {
	svc := app.NewScanService(c.Config.ScanConfig(), app.ScanDeps{
		Devices:   c.Devices,
		Camera:    c.camera,
		Connector: c.connector,
		Encoder:   c.encoder,
		Handlers:  c.Handlers(),
		Feedback:  c.feedback,
	}, c.logger)

	if c.Bot != nil {
		c.Bot.Attach(svc)
	}
	return svc
}

func (c *Container) feedback(fb entity.Feedback) {
	c.logger.Debug().
		Str("component", "hud").
		Str("phase", string(fb.Phase)).
		Float64("progress", fb.Progress).
		Str("instruction", string(fb.Instruction.Type)).
		Str("message", fb.Instruction.Message).
		Msg("frame evaluated")

	if c.Bot != nil {
		c.Bot.Notify(fb)
	}
}
