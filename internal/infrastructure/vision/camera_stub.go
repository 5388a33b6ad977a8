//go:build !gocv
// +build !gocv

package vision

import (
	"context"
	"errors"
	"image"

	"body-scan/internal/domain/entity"
	"body-scan/internal/domain/port"
)

var errNoGoCV = errors.New("gocv build tag is not enabled")

type GoCVCamera struct {
	Width  int
	Height int
}

// NewGoCVCamera создаёт камеру-заглушку (без OpenCV).
func NewGoCVCamera(width, height int) *GoCVCamera {
	return &GoCVCamera{Width: width, Height: height}
}

// Open возвращает ошибку, если сборка без тега gocv.
func (c *GoCVCamera) Open(ctx context.Context, device entity.DeviceDescriptor) (port.VideoStream, error) {
	_ = ctx
	_ = device
	return nil, errNoGoCV
}

type GoCVEncoder struct{}

// NewGoCVEncoder создаёт кодировщик-заглушку.
func NewGoCVEncoder() *GoCVEncoder {
	return &GoCVEncoder{}
}

// Encode возвращает ошибку, если сборка без тега gocv.
func (e *GoCVEncoder) Encode(img image.Image, maxSide, quality int) (port.EncodedImage, error) {
	_ = img
	_ = maxSide
	_ = quality
	return port.EncodedImage{}, errNoGoCV
}

// Available сообщает, собрана ли программа с OpenCV.
func Available() bool {
	return false
}
