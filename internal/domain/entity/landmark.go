package entity

import "math"

// Индексы суставов в 33-точечной топологии MediaPipe Pose.
const (
	JointNose          = 0
	JointLeftEye       = 2
	JointRightEye      = 5
	JointLeftShoulder  = 11
	JointRightShoulder = 12
	JointLeftHip       = 23
	JointRightHip      = 24
	JointLeftKnee      = 25
	JointRightKnee     = 26
	JointLeftAnkle     = 27
	JointRightAnkle    = 28
	NumJoints          = 33
)

// Landmark оценка положения одного сустава в нормализованных координатах кадра.
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"` // уверенность 0..1
}

// PoseFrame набор суставов за один момент времени. Пустой набор означает, что тело не найдено.
type PoseFrame []Landmark

// Detected сообщает, найдено ли тело в кадре.
func (p PoseFrame) Detected() bool {
	return len(p) > 0
}

// At возвращает сустав по индексу. Отсутствующий индекс считается невидимым суставом.
func (p PoseFrame) At(joint int) (Landmark, bool) {
	if joint < 0 || joint >= len(p) {
		return Landmark{}, false
	}
	return p[joint], true
}

// Visible проверяет, что сустав присутствует и его уверенность строго выше порога.
func (p PoseFrame) Visible(joint int, threshold float64) bool {
	lm, ok := p.At(joint)
	return ok && lm.Visibility > threshold
}

// HorizontalSpan возвращает горизонтальное расстояние между двумя суставами.
func (p PoseFrame) HorizontalSpan(a, b int) float64 {
	la, okA := p.At(a)
	lb, okB := p.At(b)
	if !okA || !okB {
		return 0
	}
	return math.Abs(la.X - lb.X)
}

// Clone возвращает независимую копию набора.
func (p PoseFrame) Clone() PoseFrame {
	if len(p) == 0 {
		return PoseFrame{}
	}
	out := make(PoseFrame, len(p))
	copy(out, p)
	return out
}
