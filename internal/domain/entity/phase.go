package entity

// Phase этап сканирования. Порядок этапов фиксирован.
type Phase string

const (
	PhaseFaceNeck   Phase = "face_neck"   // Лицо и шея
	PhaseFrontUpper Phase = "front_upper" // Фронт: корпус
	PhaseFrontLower Phase = "front_lower" // Фронт: ноги
	PhaseSideUpper  Phase = "side_upper"  // Профиль: корпус
	PhaseSideLower  Phase = "side_lower"  // Профиль: ноги
	PhaseBackUpper  Phase = "back_upper"  // Спина: корпус
	PhaseBackLower  Phase = "back_lower"  // Спина: ноги
	PhaseComplete   Phase = "complete"    // Сканирование завершено
)

// PhaseCategory группа правил кадрирования.
type PhaseCategory string

const (
	CategoryFace  PhaseCategory = "face"
	CategoryUpper PhaseCategory = "upper"
	CategoryLower PhaseCategory = "lower"
	CategoryNone  PhaseCategory = "none"
)

// Orientation как пациент должен стоять относительно камеры.
type Orientation string

const (
	OrientationFront Orientation = "front"
	OrientationSide  Orientation = "side"
	OrientationBack  Orientation = "back"
	OrientationNone  Orientation = "none"
)

var phaseOrder = []Phase{
	PhaseFaceNeck,
	PhaseFrontUpper,
	PhaseFrontLower,
	PhaseSideUpper,
	PhaseSideLower,
	PhaseBackUpper,
	PhaseBackLower,
	PhaseComplete,
}

type phaseInfo struct {
	category    PhaseCategory
	orientation Orientation
	label       string
}

var phaseInfos = map[Phase]phaseInfo{
	PhaseFaceNeck:   {CategoryFace, OrientationFront, "Лицо и шея"},
	PhaseFrontUpper: {CategoryUpper, OrientationFront, "Фронт: корпус"},
	PhaseFrontLower: {CategoryLower, OrientationFront, "Фронт: ноги"},
	PhaseSideUpper:  {CategoryUpper, OrientationSide, "Профиль: корпус"},
	PhaseSideLower:  {CategoryLower, OrientationSide, "Профиль: ноги"},
	PhaseBackUpper:  {CategoryUpper, OrientationBack, "Спина: корпус"},
	PhaseBackLower:  {CategoryLower, OrientationBack, "Спина: ноги"},
	PhaseComplete:   {CategoryNone, OrientationNone, "Завершение"},
}

// FirstPhase начальное состояние автомата.
func FirstPhase() Phase {
	return phaseOrder[0]
}

// TerminalCapturePhase последний этап, после съёмки которого сессия запечатывается.
func TerminalCapturePhase() Phase {
	return phaseOrder[len(phaseOrder)-2]
}

// CapturePhases возвращает этапы со съёмкой в порядке прохождения.
func CapturePhases() []Phase {
	out := make([]Phase, len(phaseOrder)-1)
	copy(out, phaseOrder[:len(phaseOrder)-1])
	return out
}

// Index позиция этапа в порядке прохождения, -1 для неизвестного.
func (p Phase) Index() int {
	for i, ph := range phaseOrder {
		if ph == p {
			return i
		}
	}
	return -1
}

// Valid проверяет, что этап входит в перечисление.
func (p Phase) Valid() bool {
	return p.Index() >= 0
}

// Next возвращает следующий этап. Для complete возвращается complete.
func (p Phase) Next() Phase {
	i := p.Index()
	if i < 0 || i >= len(phaseOrder)-1 {
		return PhaseComplete
	}
	return phaseOrder[i+1]
}

// IsTerminal сообщает, что этап не принимает кадры.
func (p Phase) IsTerminal() bool {
	return p == PhaseComplete
}

// Category группа правил для этапа.
func (p Phase) Category() PhaseCategory {
	if info, ok := phaseInfos[p]; ok {
		return info.category
	}
	return CategoryNone
}

// Orientation требуемый разворот пациента.
func (p Phase) Orientation() Orientation {
	if info, ok := phaseInfos[p]; ok {
		return info.orientation
	}
	return OrientationNone
}

// Label подпись этапа для оператора.
func (p Phase) Label() string {
	if info, ok := phaseInfos[p]; ok {
		return info.label
	}
	return string(p)
}

func (p Phase) String() string {
	return string(p)
}
