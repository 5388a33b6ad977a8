package app

import "body-scan/internal/domain/entity"

// MaxProgress значение, при котором срабатывает автоматическая съёмка.
const MaxProgress = 100.0

// AccumulatorConfig шаги роста и спада уверенности.
type AccumulatorConfig struct {
	Increment float64 `toml:"increment"`
	Decay     float64 `toml:"decay"`
}

// DefaultAccumulatorConfig спад быстрее роста.
func DefaultAccumulatorConfig() AccumulatorConfig {
	return AccumulatorConfig{Increment: 2.0, Decay: 3.0}
}

// Accumulator счётчик уверенности с гистерезисом в пределах [0, 100].
type Accumulator struct {
	cfg   AccumulatorConfig
	value float64
}

// NewAccumulator создаёт обнулённый счётчик.
func NewAccumulator(cfg AccumulatorConfig) *Accumulator {
	return &Accumulator{cfg: cfg}
}

// Observe учитывает классификацию кадра и возвращает новое значение.
func (a *Accumulator) Observe(t entity.InstructionType) float64 {
	if t == entity.InstructionSuccess {
		a.value = min(a.value+a.cfg.Increment, MaxProgress)
	} else {
		a.value = max(a.value-a.cfg.Decay, 0)
	}
	return a.value
}

// Value текущее значение.
func (a *Accumulator) Value() float64 {
	return a.value
}

// Saturated сообщает, что пора снимать.
func (a *Accumulator) Saturated() bool {
	return a.value >= MaxProgress
}

// Reset обнуляет счётчик при смене этапа.
func (a *Accumulator) Reset() {
	a.value = 0
}
