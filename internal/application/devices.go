package app

import (
	"context"
	"fmt"

	"body-scan/internal/domain/entity"
	"body-scan/internal/domain/port"
)

type DeviceService struct {
	enumerator port.DeviceEnumerator
}

func NewDeviceService(enumerator port.DeviceEnumerator) *DeviceService {
	return &DeviceService{enumerator: enumerator}
}

// ListCameras возвращает камеры или NoDeviceError, если их нет или к ним нет доступа.
func (s *DeviceService) ListCameras(ctx context.Context) ([]entity.DeviceDescriptor, error) {
	if s.enumerator == nil {
		return nil, &entity.NoDeviceError{}
	}
	devices, err := s.enumerator.List(ctx)
	if err != nil {
		return nil, &entity.NoDeviceError{Cause: err}
	}
	if len(devices) == 0 {
		return nil, &entity.NoDeviceError{}
	}
	return devices, nil
}

// Resolve находит камеру по ID или пути, пустой id означает камеру по умолчанию.
func (s *DeviceService) Resolve(ctx context.Context, id string) (entity.DeviceDescriptor, error) {
	devices, err := s.ListCameras(ctx)
	if err != nil {
		return entity.DeviceDescriptor{}, err
	}
	if id == "" {
		return SelectDefault(devices)
	}
	for _, d := range devices {
		if d.ID == id || d.Path == id {
			return d, nil
		}
	}
	return entity.DeviceDescriptor{}, &entity.NoDeviceError{Cause: fmt.Errorf("device %q not found", id)}
}

// SelectDefault предпочитает заднюю камеру, иначе первую в списке.
func SelectDefault(devices []entity.DeviceDescriptor) (entity.DeviceDescriptor, error) {
	if len(devices) == 0 {
		return entity.DeviceDescriptor{}, &entity.NoDeviceError{}
	}
	for _, d := range devices {
		if d.IsRear() {
			return d, nil
		}
	}
	return devices[0], nil
}
