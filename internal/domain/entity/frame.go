package entity

import (
	"image"
	"strings"
	"time"
)

// Frame декодированный кадр с камеры.
type Frame struct {
	Image      image.Image
	Seq        uint64
	CapturedAt time.Time
}

// Facing направление камеры.
type Facing string

const (
	FacingFront   Facing = "front"
	FacingBack    Facing = "back"
	FacingUnknown Facing = "unknown"
)

// DeviceDescriptor описание доступной камеры.
type DeviceDescriptor struct {
	ID     string // стабильный идентификатор (например, video0)
	Label  string // человекочитаемое имя
	Path   string // путь к устройству или каталогу кадров
	Facing Facing
}

var rearHints = []string{"back", "rear", "environment", "задн"}

// IsRear сообщает, что камера направлена от оператора.
func (d DeviceDescriptor) IsRear() bool {
	if d.Facing == FacingBack {
		return true
	}
	label := strings.ToLower(d.Label)
	for _, hint := range rearHints {
		if strings.Contains(label, hint) {
			return true
		}
	}
	return false
}
