package entity

import (
	"errors"
	"fmt"
)

var (
	ErrNoDevice          = errors.New("no camera device available")
	ErrEngineUnavailable = errors.New("pose engine unavailable")
	ErrSessionSealed     = errors.New("scan session is sealed")
	ErrPhaseCaptured     = errors.New("phase already captured")
	ErrScanComplete      = errors.New("scan is complete")
	ErrNoFrame           = errors.New("no frame available for capture")
)

// NoDeviceError фатальная ошибка: камер нет или нет доступа к ним.
type NoDeviceError struct {
	Cause error
}

func (e *NoDeviceError) Error() string {
	if e.Cause == nil {
		return ErrNoDevice.Error()
	}
	return fmt.Sprintf("%s: %v", ErrNoDevice, e.Cause)
}

func (e *NoDeviceError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrNoDevice}
	}
	return []error{ErrNoDevice, e.Cause}
}

// EngineUnavailableError фатальная ошибка: движок позы не поднялся за отведённые попытки.
type EngineUnavailableError struct {
	Attempts int
	Cause    error
}

func (e *EngineUnavailableError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s after %d attempts", ErrEngineUnavailable, e.Attempts)
	}
	return fmt.Sprintf("%s after %d attempts: %v", ErrEngineUnavailable, e.Attempts, e.Cause)
}

func (e *EngineUnavailableError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrEngineUnavailable}
	}
	return []error{ErrEngineUnavailable, e.Cause}
}
