package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"body-scan/internal/domain/entity"
	"body-scan/internal/domain/port"
)

// ScanConfig настройки сервиса сканирования.
type ScanConfig struct {
	DeviceID    string
	Loop        LoopConfig
	Engine      EngineConfig
	Rules       RuleConfig
	Accumulator AccumulatorConfig
	Capture     CaptureConfig
}

// ScanDeps внешние участники сканирования.
type ScanDeps struct {
	Devices   *DeviceService
	Camera    port.Camera
	Connector port.EstimatorConnector
	Encoder   port.ImageEncoder
	Handlers  []port.SessionHandler
	Feedback  func(entity.Feedback)
}

// ScanStatus состояние сканирования для оператора.
type ScanStatus struct {
	MachineSnapshot
	Device entity.DeviceDescriptor
	Stats  entity.LoopStats
}

// ScanService проводит одну сессию сканирования от захвата камеры до передачи сессии получателям.
type ScanService struct {
	cfg      ScanConfig
	deps     ScanDeps
	logger   zerolog.Logger
	machine  *PhaseMachine
	loop     *FrameLoop
	switchCh chan entity.DeviceDescriptor
	sealed   chan *entity.ScanSession

	mu     sync.RWMutex
	device entity.DeviceDescriptor
}

// NewScanService собирает автомат этапов и цикл кадров для новой сессии.
func NewScanService(cfg ScanConfig, deps ScanDeps, logger zerolog.Logger) *ScanService {
	s := &ScanService{
		cfg:      cfg,
		deps:     deps,
		logger:   logger.With().Str("component", "scan-service").Logger(),
		switchCh: make(chan entity.DeviceDescriptor, 1),
		sealed:   make(chan *entity.ScanSession, 1),
	}

	session := entity.NewScanSession(uuid.NewString(), time.Now())
	pipeline := NewCapturePipeline(cfg.Capture, deps.Encoder)
	s.machine = NewPhaseMachine(NewEvaluator(cfg.Rules), cfg.Accumulator, pipeline, session, s.onComplete, logger)
	s.loop = NewFrameLoop(cfg.Loop, deps.Feedback, logger)
	return s
}

// Run захватывает камеру и движок, ведёт сессию до запечатывания и освобождает ресурсы на любом пути выхода.
// Фатальные ошибки (нет камеры, движок не поднялся) возвращаются как есть. Если выбранная оператором
// камера не открылась, съёмка продолжается на предыдущей.
func (s *ScanService) Run(ctx context.Context) (*entity.ScanSession, error) {
	device, err := s.deps.Devices.Resolve(ctx, s.cfg.DeviceID)
	if err != nil {
		return nil, err
	}

	var fallback *entity.DeviceDescriptor
	for {
		next, err := s.runOnDevice(ctx, device)
		if err != nil {
			if fallback == nil || !errors.Is(err, entity.ErrNoDevice) {
				return nil, err
			}
			s.logger.Warn().
				Err(err).
				Str("device", device.ID).
				Str("fallback", fallback.ID).
				Msg("switched camera failed to open, returning to previous device")
			device, fallback = *fallback, nil
			continue
		}

		select {
		case session := <-s.sealed:
			return session, s.deliver(ctx, session)
		default:
		}

		if next == nil {
			return nil, errors.New("frame loop stopped before the session was sealed")
		}
		prev := device
		device, fallback = *next, &prev
		s.logger.Info().Str("device", device.ID).Str("previous", prev.ID).Msg("switching camera device")
	}
}

// runOnDevice возвращает новую камеру, если оператор её сменил.
func (s *ScanService) runOnDevice(ctx context.Context, device entity.DeviceDescriptor) (*entity.DeviceDescriptor, error) {
	res := &resources{}
	defer res.release(s.logger)

	stream, err := s.deps.Camera.Open(ctx, device)
	if err != nil {
		return nil, &entity.NoDeviceError{Cause: fmt.Errorf("open %s: %w", device.ID, err)}
	}
	res.stream = stream
	s.setDevice(device)

	estimator, err := InitializeEstimator(ctx, s.deps.Connector, s.cfg.Engine, s.logger)
	if err != nil {
		return nil, err
	}
	res.estimator = estimator

	s.logger.Info().
		Str("device", device.ID).
		Str("label", device.Label).
		Str("phase", string(s.machine.Phase())).
		Msg("scanner started")

	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- s.loop.Run(loopCtx, stream, estimator, s.machine)
	}()

	select {
	case err := <-done:
		return nil, err
	case next := <-s.switchCh:
		// Цикл полностью останавливается до освобождения камеры и движка.
		cancel()
		if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
			return nil, err
		}
		return &next, nil
	}
}

// SwitchDevice просит перезапустить захват на другой камере. Прогресс этапов сохраняется.
// Неизвестный ID возвращается ошибкой NoDeviceError, текущая съёмка не прерывается.
func (s *ScanService) SwitchDevice(ctx context.Context, id string) error {
	if s.machine.Snapshot().Complete {
		return entity.ErrScanComplete
	}
	device, err := s.deps.Devices.Resolve(ctx, id)
	if err != nil {
		return err
	}
	select {
	case s.switchCh <- device:
		return nil
	default:
		return errors.New("device switch already pending")
	}
}

// RequestCapture ручная съёмка текущего этапа.
func (s *ScanService) RequestCapture(ctx context.Context) (*entity.CaptureRecord, error) {
	if s.machine.Snapshot().Complete {
		return nil, entity.ErrScanComplete
	}
	return s.loop.RequestCapture(ctx)
}

// Status текущее состояние сканирования.
func (s *ScanService) Status() ScanStatus {
	s.mu.RLock()
	device := s.device
	s.mu.RUnlock()
	return ScanStatus{
		MachineSnapshot: s.machine.Snapshot(),
		Device:          device,
		Stats:           s.loop.Stats(),
	}
}

func (s *ScanService) setDevice(d entity.DeviceDescriptor) {
	s.mu.Lock()
	s.device = d
	s.mu.Unlock()
}

func (s *ScanService) onComplete(session *entity.ScanSession) {
	select {
	case s.sealed <- session:
	default:
	}
}

func (s *ScanService) deliver(ctx context.Context, session *entity.ScanSession) error {
	var errs []error
	for _, h := range s.deps.Handlers {
		if err := h.HandleSession(ctx, session); err != nil {
			s.logger.Error().Err(err).Str("session_id", session.ID).Msg("session handler failed")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// resources камера и движок текущего запуска. Камера освобождается первой.
type resources struct {
	stream    port.VideoStream
	estimator port.PoseEstimator
}

func (r *resources) release(logger zerolog.Logger) {
	if r.stream != nil {
		if err := r.stream.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close camera stream")
		}
		r.stream = nil
	}
	if r.estimator != nil {
		if err := r.estimator.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to dispose pose engine")
		}
		r.estimator = nil
	}
}
