package app

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"body-scan/internal/domain/entity"
)

// MachineSnapshot состояние автомата для чтения из других горутин.
type MachineSnapshot struct {
	SessionID   string
	Phase       entity.Phase
	Progress    float64
	Captured    int
	Instruction entity.Instruction
	Complete    bool
}

// PhaseMachine автомат этапов сканирования.
//
// Observe и CaptureManual вызываются из одной горутины (цикла захвата кадров).
// Snapshot безопасен для вызова откуда угодно.
type PhaseMachine struct {
	evaluator  *Evaluator
	acc        *Accumulator
	pipeline   *CapturePipeline
	session    *entity.ScanSession
	onComplete func(*entity.ScanSession)
	logger     zerolog.Logger
	now        func() time.Time

	phase           entity.Phase
	lastFrame       *entity.Frame
	lastLandmarks   entity.PoseFrame
	lastInstruction entity.Instruction
	completed       bool

	mu       sync.RWMutex
	snapshot MachineSnapshot
}

// NewPhaseMachine создаёт автомат в начальном этапе с открытой сессией.
func NewPhaseMachine(
	evaluator *Evaluator,
	accCfg AccumulatorConfig,
	pipeline *CapturePipeline,
	session *entity.ScanSession,
	onComplete func(*entity.ScanSession),
	logger zerolog.Logger,
) *PhaseMachine {
	m := &PhaseMachine{
		evaluator:       evaluator,
		acc:             NewAccumulator(accCfg),
		pipeline:        pipeline,
		session:         session,
		onComplete:      onComplete,
		logger:          logger.With().Str("component", "phase-machine").Logger(),
		now:             time.Now,
		phase:           entity.FirstPhase(),
		lastInstruction: neutral("Приготовьтесь..."),
	}
	m.publish()
	return m
}

// Phase текущий этап.
func (m *PhaseMachine) Phase() entity.Phase {
	return m.phase
}

// Progress текущее значение счётчика уверенности.
func (m *PhaseMachine) Progress() float64 {
	return m.acc.Value()
}

// Complete сообщает, что сессия запечатана.
func (m *PhaseMachine) Complete() bool {
	return m.completed
}

// Session сессия, которую собирает автомат.
func (m *PhaseMachine) Session() *entity.ScanSession {
	return m.session
}

// Observe оценивает кадр в текущем этапе и снимает этап при насыщении счётчика.
func (m *PhaseMachine) Observe(frame *entity.Frame, landmarks entity.PoseFrame) (entity.Feedback, error) {
	if m.completed {
		return entity.Feedback{Phase: entity.PhaseComplete, Instruction: neutral(msgFinished)}, entity.ErrScanComplete
	}

	m.lastFrame = frame
	m.lastLandmarks = landmarks

	instr := m.evaluator.Evaluate(landmarks, m.phase)
	m.lastInstruction = instr

	fb := entity.Feedback{
		Phase:       m.phase,
		Instruction: instr,
		Progress:    m.acc.Observe(instr.Type),
	}
	if frame != nil {
		fb.Seq = frame.Seq
	}

	if m.acc.Saturated() {
		rec, err := m.capture(frame, landmarks, false)
		if err != nil {
			m.publish()
			return fb, err
		}
		fb.Captured = rec
	}

	m.publish()
	return fb, nil
}

// CaptureManual снимает текущий этап по команде оператора при любом значении счётчика.
// Снимок берётся с последнего оценённого кадра, суставы могут быть пустыми.
func (m *PhaseMachine) CaptureManual() (*entity.CaptureRecord, error) {
	if m.completed {
		return nil, entity.ErrScanComplete
	}
	if m.lastFrame == nil {
		return nil, entity.ErrNoFrame
	}

	rec, err := m.capture(m.lastFrame, m.lastLandmarks, true)
	m.publish()
	return rec, err
}

// capture единственный переход между этапами.
func (m *PhaseMachine) capture(frame *entity.Frame, landmarks entity.PoseFrame, manual bool) (*entity.CaptureRecord, error) {
	phase := m.phase

	rec, err := m.pipeline.Capture(phase, frame, landmarks, manual)
	if err != nil {
		return nil, err
	}
	if err := m.session.Add(rec); err != nil {
		return nil, fmt.Errorf("store %s capture: %w", phase, err)
	}

	m.acc.Reset()
	m.phase = phase.Next()

	m.logger.Info().
		Str("phase", string(phase)).
		Str("next", string(m.phase)).
		Bool("manual", manual).
		Int("landmarks", len(rec.Landmarks)).
		Int("bytes", len(rec.Image)).
		Msg("phase captured")

	if phase == entity.TerminalCapturePhase() {
		if err := m.session.Seal(m.now()); err != nil {
			return rec, fmt.Errorf("seal session: %w", err)
		}
		m.completed = true
		m.lastInstruction = neutral(msgFinished)
		m.logger.Info().Str("session_id", m.session.ID).Int("captures", m.session.Len()).Msg("scan session sealed")
		if m.onComplete != nil {
			m.onComplete(m.session)
		}
	}

	return rec, nil
}

// Snapshot копия состояния для статуса и HUD.
func (m *PhaseMachine) Snapshot() MachineSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

func (m *PhaseMachine) publish() {
	snap := MachineSnapshot{
		SessionID:   m.session.ID,
		Phase:       m.phase,
		Progress:    m.acc.Value(),
		Captured:    m.session.Len(),
		Instruction: m.lastInstruction,
		Complete:    m.completed,
	}
	m.mu.Lock()
	m.snapshot = snap
	m.mu.Unlock()
}
