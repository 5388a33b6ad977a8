package entity

import (
	"fmt"
	"sync"
	"time"
)

// CaptureRecord снимок одного этапа. После создания не изменяется.
type CaptureRecord struct {
	Phase      Phase
	Landmarks  PoseFrame // может быть пустым при ручной съёмке
	Image      []byte    // JPEG
	Width      int
	Height     int
	Manual     bool
	CapturedAt time.Time
}

// NewCaptureRecord создаёт запись, копируя суставы и байты изображения.
func NewCaptureRecord(phase Phase, landmarks PoseFrame, img []byte, width, height int, manual bool, at time.Time) *CaptureRecord {
	data := make([]byte, len(img))
	copy(data, img)
	return &CaptureRecord{
		Phase:      phase,
		Landmarks:  landmarks.Clone(),
		Image:      data,
		Width:      width,
		Height:     height,
		Manual:     manual,
		CapturedAt: at,
	}
}

// Clone глубокая копия записи.
func (r *CaptureRecord) Clone() *CaptureRecord {
	out := *r
	out.Landmarks = r.Landmarks.Clone()
	out.Image = append([]byte(nil), r.Image...)
	return &out
}

// SessionLine строка обзора сессии перед передачей дальше.
type SessionLine struct {
	Phase     Phase
	Label     string
	Captured  bool
	Manual    bool
	Landmarks int
}

// ScanSession упорядоченный набор снимков по этапам.
type ScanSession struct {
	ID        string
	StartedAt time.Time

	mu       sync.RWMutex
	records  map[Phase]*CaptureRecord
	sealed   bool
	sealedAt time.Time
}

// NewScanSession создаёт открытую сессию.
func NewScanSession(id string, startedAt time.Time) *ScanSession {
	return &ScanSession{
		ID:        id,
		StartedAt: startedAt,
		records:   make(map[Phase]*CaptureRecord),
	}
}

// Add кладёт снимок этапа. Этап можно снять только один раз.
func (s *ScanSession) Add(rec *CaptureRecord) error {
	if rec == nil {
		return fmt.Errorf("nil capture record")
	}
	if !rec.Phase.Valid() || rec.Phase.IsTerminal() {
		return fmt.Errorf("phase %q does not accept captures", rec.Phase)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sealed {
		return ErrSessionSealed
	}
	if _, exists := s.records[rec.Phase]; exists {
		return fmt.Errorf("%w: %s", ErrPhaseCaptured, rec.Phase)
	}
	s.records[rec.Phase] = rec
	return nil
}

// Seal запечатывает сессию. Требует снимка последнего этапа.
func (s *ScanSession) Seal(at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sealed {
		return ErrSessionSealed
	}
	if _, ok := s.records[TerminalCapturePhase()]; !ok {
		return fmt.Errorf("cannot seal session without %s capture", TerminalCapturePhase())
	}
	s.sealed = true
	s.sealedAt = at
	return nil
}

// Sealed сообщает, запечатана ли сессия.
func (s *ScanSession) Sealed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sealed
}

// SealedAt время запечатывания, нулевое для открытой сессии.
func (s *ScanSession) SealedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sealedAt
}

// Record возвращает копию снимка этапа.
func (s *ScanSession) Record(phase Phase) (*CaptureRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[phase]
	if !ok {
		return nil, false
	}
	return rec.Clone(), true
}

// Records возвращает копии снимков в порядке этапов, изменения в них не доходят до сессии.
func (s *ScanSession) Records() []*CaptureRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*CaptureRecord, 0, len(s.records))
	for _, phase := range CapturePhases() {
		if rec, ok := s.records[phase]; ok {
			out = append(out, rec.Clone())
		}
	}
	return out
}

// Missing этапы без снимка.
func (s *ScanSession) Missing() []Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Phase
	for _, phase := range CapturePhases() {
		if _, ok := s.records[phase]; !ok {
			out = append(out, phase)
		}
	}
	return out
}

// Len количество снятых этапов.
func (s *ScanSession) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Summary обзор сессии по всем этапам.
func (s *ScanSession) Summary() []SessionLine {
	s.mu.RLock()
	defer s.mu.RUnlock()

	phases := CapturePhases()
	lines := make([]SessionLine, 0, len(phases))
	for _, phase := range phases {
		line := SessionLine{Phase: phase, Label: phase.Label()}
		if rec, ok := s.records[phase]; ok {
			line.Captured = true
			line.Manual = rec.Manual
			line.Landmarks = len(rec.Landmarks)
		}
		lines = append(lines, line)
	}
	return lines
}
