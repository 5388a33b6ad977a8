package device

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"

	"body-scan/internal/domain/entity"
	"body-scan/internal/domain/port"
)

// LockedCamera удерживает файловую блокировку устройства, пока поток открыт.
type LockedCamera struct {
	camera port.Camera
	dir    string
}

// NewLockedCamera оборачивает камеру блокировкой в каталоге dir.
func NewLockedCamera(camera port.Camera, dir string) *LockedCamera {
	if dir == "" {
		dir = os.TempDir()
	}
	return &LockedCamera{camera: camera, dir: dir}
}

// Open захватывает блокировку и только затем открывает устройство.
func (c *LockedCamera) Open(ctx context.Context, device entity.DeviceDescriptor) (port.VideoStream, error) {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}

	path := c.LockPath(device)
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire camera lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("camera %s is used by another process", device.ID)
	}

	stream, err := c.camera.Open(ctx, device)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	return &lockedStream{VideoStream: stream, lock: lock}, nil
}

// LockPath путь файла блокировки устройства.
func (c *LockedCamera) LockPath(device entity.DeviceDescriptor) string {
	id := device.ID
	if id == "" {
		id = device.Path
	}
	id = strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(strings.TrimPrefix(id, "/"))
	return filepath.Join(c.dir, "body-scan-"+id+".lock")
}

type lockedStream struct {
	port.VideoStream
	lock *flock.Flock
	once sync.Once
	err  error
}

// Close закрывает поток и снимает блокировку даже при ошибке закрытия.
func (s *lockedStream) Close() error {
	s.once.Do(func() {
		err := s.VideoStream.Close()
		if uerr := s.lock.Unlock(); err == nil && uerr != nil {
			err = fmt.Errorf("release camera lock: %w", uerr)
		}
		s.err = err
	})
	return s.err
}

var _ port.Camera = (*LockedCamera)(nil)
