package vision

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"body-scan/internal/domain/entity"
	"body-scan/internal/domain/port"
)

// StillCamera проигрывает каталог снимков по кругу вместо живой камеры.
type StillCamera struct{}

// NewStillCamera создаёт камеру из каталога кадров.
func NewStillCamera() *StillCamera {
	return &StillCamera{}
}

// Open читает список кадров каталога device.Path.
func (c *StillCamera) Open(ctx context.Context, device entity.DeviceDescriptor) (port.VideoStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	frames, err := listFrames(device.Path)
	if err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("no frames in %s", device.Path)
	}
	return &stillStream{files: frames}, nil
}

type stillStream struct {
	mu     sync.Mutex
	files  []string
	next   int
	seq    uint64
	closed bool
}

func (s *stillStream) Read(ctx context.Context) (*entity.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errors.New("video stream is closed")
	}

	path := s.files[s.next]
	s.next = (s.next + 1) % len(s.files)

	img, err := decodeFile(path)
	if err != nil {
		return nil, err
	}

	s.seq++
	return &entity.Frame{Image: img, Seq: s.seq, CapturedAt: time.Now()}, nil
}

func (s *stillStream) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func listFrames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read frames dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open frame: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode frame %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

var _ port.Camera = (*StillCamera)(nil)
