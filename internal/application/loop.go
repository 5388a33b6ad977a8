package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"body-scan/internal/domain/entity"
	"body-scan/internal/domain/port"
)

// LoopConfig параметры цикла захвата кадров.
type LoopConfig struct {
	FrameInterval   time.Duration
	MaxReadFailures int
}

// DefaultLoopConfig примерно одна итерация на обновление экрана.
func DefaultLoopConfig() LoopConfig {
	return LoopConfig{
		FrameInterval:   33 * time.Millisecond,
		MaxReadFailures: 30,
	}
}

type estimation struct {
	frame     *entity.Frame
	landmarks entity.PoseFrame
	err       error
	took      time.Duration
}

// captureWait сколько ручная съёмка ждёт, пока цикл примет запрос.
const captureWait = time.Second

type captureReply struct {
	record *entity.CaptureRecord
	err    error
}

// FrameLoop подаёт кадры в движок позы, не более одной оценки одновременно.
type FrameLoop struct {
	cfg      LoopConfig
	logger   zerolog.Logger
	feedback func(entity.Feedback)
	requests chan chan captureReply
	running  atomic.Bool

	mu             sync.Mutex
	stats          entity.LoopStats
	lastCompletion time.Time
}

// NewFrameLoop создаёт цикл. feedback вызывается из горутины цикла после каждого кадра.
func NewFrameLoop(cfg LoopConfig, feedback func(entity.Feedback), logger zerolog.Logger) *FrameLoop {
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = DefaultLoopConfig().FrameInterval
	}
	return &FrameLoop{
		cfg:      cfg,
		logger:   logger.With().Str("component", "frame-loop").Logger(),
		feedback: feedback,
		requests: make(chan chan captureReply),
	}
}

// Run крутит цикл до завершения сессии, отмены контекста или отказа камеры.
// При выходе дожидается незавершённой оценки, поэтому ресурсы можно освобождать сразу после Run.
func (l *FrameLoop) Run(ctx context.Context, stream port.VideoStream, estimator port.PoseEstimator, machine *PhaseMachine) error {
	if machine.Complete() {
		return nil
	}
	l.running.Store(true)
	defer l.running.Store(false)

	var wg sync.WaitGroup
	defer wg.Wait()

	estCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	ticker := time.NewTicker(l.cfg.FrameInterval)
	defer ticker.Stop()

	results := make(chan estimation, 1)
	inFlight := false
	readFailures := 0

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case reply := <-l.requests:
			rec, err := machine.CaptureManual()
			reply <- captureReply{record: rec, err: err}
			if machine.Complete() {
				return nil
			}

		case <-ticker.C:
			if inFlight {
				l.update(func(s *entity.LoopStats) { s.Skipped++ })
				continue
			}

			frame, err := stream.Read(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				readFailures++
				l.logger.Warn().Err(err).Int("failures", readFailures).Msg("failed to read camera frame")
				if l.cfg.MaxReadFailures > 0 && readFailures >= l.cfg.MaxReadFailures {
					return fmt.Errorf("read camera frame: %w", err)
				}
				continue
			}
			readFailures = 0

			inFlight = true
			l.update(func(s *entity.LoopStats) { s.Submitted++ })
			wg.Add(1)
			go func() {
				defer wg.Done()
				start := time.Now()
				landmarks, err := estimator.Estimate(estCtx, frame)
				results <- estimation{frame: frame, landmarks: landmarks, err: err, took: time.Since(start)}
			}()

		case res := <-results:
			inFlight = false
			l.complete(res)

			landmarks := res.landmarks
			if res.err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				// Отказ оценки равносилен кадру без тела, повторов нет.
				l.logger.Debug().Err(res.err).Msg("pose estimation failed")
				landmarks = nil
			}

			fb, err := machine.Observe(res.frame, landmarks)
			if errors.Is(err, entity.ErrScanComplete) {
				return nil
			}
			if err != nil {
				l.logger.Warn().Err(err).Str("phase", string(fb.Phase)).Msg("capture failed")
			}
			if l.feedback != nil {
				l.feedback(fb)
			}
			if machine.Complete() {
				return nil
			}
		}
	}
}

// RequestCapture передаёт ручную съёмку в горутину цикла и ждёт результата.
// Пока цикл не запущен (подключение движка, смена камеры), сразу возвращает ErrNoFrame.
func (l *FrameLoop) RequestCapture(ctx context.Context) (*entity.CaptureRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !l.running.Load() {
		return nil, entity.ErrNoFrame
	}

	wait := time.NewTimer(captureWait)
	defer wait.Stop()

	reply := make(chan captureReply, 1)
	select {
	case l.requests <- reply:
	case <-wait.C:
		return nil, entity.ErrNoFrame
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case r := <-reply:
		return r.record, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Stats копия статистики цикла.
func (l *FrameLoop) Stats() entity.LoopStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

func (l *FrameLoop) update(fn func(*entity.LoopStats)) {
	l.mu.Lock()
	fn(&l.stats)
	l.mu.Unlock()
}

func (l *FrameLoop) complete(res estimation) {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if res.err != nil {
		l.stats.Failed++
	} else {
		l.stats.Completed++
	}
	l.stats.LastInference = res.took

	if !l.lastCompletion.IsZero() {
		if dt := now.Sub(l.lastCompletion).Seconds(); dt > 0 {
			inst := 1 / dt
			if l.stats.FPS == 0 {
				l.stats.FPS = inst
			} else {
				l.stats.FPS = 0.9*l.stats.FPS + 0.1*inst
			}
		}
	}
	l.lastCompletion = now
}
