package device

import (
	"context"

	"body-scan/internal/domain/entity"
	"body-scan/internal/domain/port"
)

// StaticEnumerator отдаёт заранее заданный список камер.
type StaticEnumerator struct {
	devices []entity.DeviceDescriptor
}

func NewStaticEnumerator(devices ...entity.DeviceDescriptor) *StaticEnumerator {
	return &StaticEnumerator{devices: devices}
}

func (e *StaticEnumerator) List(ctx context.Context) ([]entity.DeviceDescriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]entity.DeviceDescriptor, len(e.devices))
	copy(out, e.devices)
	return out, nil
}

var _ port.DeviceEnumerator = (*StaticEnumerator)(nil)
