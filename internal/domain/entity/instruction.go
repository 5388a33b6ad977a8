package entity

import "time"

// InstructionType класс вердикта по кадру.
type InstructionType string

const (
	InstructionSuccess InstructionType = "success"
	InstructionWarning InstructionType = "warning"
	InstructionError   InstructionType = "error"
	InstructionNeutral InstructionType = "neutral"
)

// Instruction вердикт по текущему кадру и подсказка оператору.
type Instruction struct {
	Type    InstructionType
	Message string
}

// IsSuccess сообщает, что кадр удовлетворяет правилам этапа.
func (i Instruction) IsSuccess() bool {
	return i.Type == InstructionSuccess
}

// Feedback то, что видит оператор после каждого кадра.
type Feedback struct {
	Phase       Phase
	Instruction Instruction
	Progress    float64 // 0..100
	Seq         uint64
	Captured    *CaptureRecord // не nil, если кадр вызвал съёмку
}

// LoopStats статистика цикла захвата кадров.
type LoopStats struct {
	Submitted     uint64
	Completed     uint64
	Failed        uint64
	Skipped       uint64 // тики, пропущенные из-за незавершённой оценки
	FPS           float64
	LastInference time.Duration
}
