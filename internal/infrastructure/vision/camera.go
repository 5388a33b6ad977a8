//go:build gocv
// +build gocv

package vision

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strconv"
	"strings"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"body-scan/internal/domain/entity"
	"body-scan/internal/domain/port"
)

// GoCVCamera открывает V4L-устройства через OpenCV.
type GoCVCamera struct {
	Width  int
	Height int
}

// NewGoCVCamera создаёт камеру с желаемым разрешением (0 оставляет значение драйвера).
func NewGoCVCamera(width, height int) *GoCVCamera {
	return &GoCVCamera{Width: width, Height: height}
}

// Open захватывает устройство по пути или номеру.
func (c *GoCVCamera) Open(ctx context.Context, device entity.DeviceDescriptor) (port.VideoStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	capture, err := gocv.OpenVideoCapture(captureSource(device))
	if err != nil {
		return nil, fmt.Errorf("open video capture %s: %w", device.Path, err)
	}
	if !capture.IsOpened() {
		_ = capture.Close()
		return nil, fmt.Errorf("video capture %s is not opened", device.Path)
	}

	if c.Width > 0 && c.Height > 0 {
		capture.Set(gocv.VideoCaptureFrameWidth, float64(c.Width))
		capture.Set(gocv.VideoCaptureFrameHeight, float64(c.Height))
	}

	return &gocvStream{capture: capture, mat: gocv.NewMat()}, nil
}

type gocvStream struct {
	mu      sync.Mutex
	capture *gocv.VideoCapture
	mat     gocv.Mat
	seq     uint64
	closed  bool
}

// Read снимает текущий кадр и отдаёт его копией, не связанной с буфером OpenCV.
func (s *gocvStream) Read(ctx context.Context) (*entity.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errors.New("video stream is closed")
	}
	if ok := s.capture.Read(&s.mat); !ok || s.mat.Empty() {
		return nil, errors.New("empty frame")
	}

	img, err := s.mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("convert frame: %w", err)
	}

	s.seq++
	return &entity.Frame{Image: img, Seq: s.seq, CapturedAt: time.Now()}, nil
}

// Close освобождает устройство.
func (s *gocvStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.mat.Close()
	return s.capture.Close()
}

// GoCVEncoder уменьшает и сжимает снимки через OpenCV.
type GoCVEncoder struct{}

// NewGoCVEncoder создаёт кодировщик OpenCV.
func NewGoCVEncoder() *GoCVEncoder {
	return &GoCVEncoder{}
}

// Encode приводит изображение к maxSide по большей стороне и кодирует в JPEG.
func (e *GoCVEncoder) Encode(img image.Image, maxSide, quality int) (port.EncodedImage, error) {
	if img == nil {
		return port.EncodedImage{}, errors.New("empty image")
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return port.EncodedImage{}, fmt.Errorf("convert image: %w", err)
	}
	defer func() { mat.Close() }()

	if mat.Empty() {
		return port.EncodedImage{}, errors.New("empty image")
	}

	if maxSide > 0 && (mat.Cols() > maxSide || mat.Rows() > maxSide) {
		scale := float64(maxSide) / float64(maxInt(mat.Cols(), mat.Rows()))
		newW := minInt(maxInt(int(float64(mat.Cols())*scale+0.5), 1), maxSide)
		newH := minInt(maxInt(int(float64(mat.Rows())*scale+0.5), 1), maxSide)
		resized := gocv.NewMat()
		gocv.Resize(mat, &resized, image.Pt(newW, newH), 0, 0, gocv.InterpolationArea)
		mat.Close()
		mat = resized
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, mat, []int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return port.EncodedImage{}, fmt.Errorf("encode jpeg: %w", err)
	}
	defer buf.Close()

	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())

	return port.EncodedImage{Data: data, Width: mat.Cols(), Height: mat.Rows()}, nil
}

// captureSource превращает "/dev/video2" или "2" в номер устройства, иначе отдаёт путь как есть.
func captureSource(device entity.DeviceDescriptor) interface{} {
	src := device.Path
	if src == "" {
		src = device.ID
	}
	trimmed := strings.TrimPrefix(strings.TrimPrefix(src, "/dev/"), "video")
	if n, err := strconv.Atoi(trimmed); err == nil {
		return n
	}
	return src
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

var (
	_ port.Camera       = (*GoCVCamera)(nil)
	_ port.ImageEncoder = (*GoCVEncoder)(nil)
)

// Available сообщает, собрана ли программа с OpenCV.
func Available() bool {
	return true
}
