package device

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pilebones/go-udev/crawler"
	"github.com/pilebones/go-udev/netlink"
	"golang.org/x/sys/unix"

	"body-scan/internal/domain/entity"
	"body-scan/internal/domain/port"
)

var frontHints = []string{"front", "user", "integrated", "facetime", "webcam"}

// UdevEnumerator перечисляет V4L-камеры по дереву sysfs.
type UdevEnumerator struct {
	devRoot string
	crawl   func(ctx context.Context) ([]crawler.Device, error)
	access  func(path string) error
}

// NewUdevEnumerator создаёт перечислитель поверх /sys и /dev.
func NewUdevEnumerator() *UdevEnumerator {
	return &UdevEnumerator{
		devRoot: "/dev",
		crawl:   crawlVideoDevices,
		access: func(path string) error {
			return unix.Access(path, unix.R_OK|unix.W_OK)
		},
	}
}

// List возвращает камеры, к которым у процесса есть доступ на чтение и запись.
func (e *UdevEnumerator) List(ctx context.Context) ([]entity.DeviceDescriptor, error) {
	found, err := e.crawl(ctx)
	if err != nil {
		return nil, fmt.Errorf("crawl video4linux devices: %w", err)
	}

	var (
		devices []entity.DeviceDescriptor
		denied  []error
	)
	for _, dev := range found {
		name := filepath.Base(dev.Env["DEVNAME"])
		if name == "" || name == "." {
			continue
		}
		// Вторичные узлы (метаданные) имеют index > 0.
		if idx := readAttr(dev.KObj, "index"); idx != "" && idx != "0" {
			continue
		}

		path := filepath.Join(e.devRoot, name)
		if err := e.access(path); err != nil {
			denied = append(denied, fmt.Errorf("%s: %w", path, err))
			continue
		}

		label := readAttr(dev.KObj, "name")
		if label == "" {
			label = name
		}
		devices = append(devices, entity.DeviceDescriptor{
			ID:     name,
			Label:  label,
			Path:   path,
			Facing: guessFacing(label),
		})
	}

	if len(devices) == 0 && len(denied) > 0 {
		return nil, fmt.Errorf("camera permission denied: %w", errors.Join(denied...))
	}

	sort.SliceStable(devices, func(i, j int) bool {
		return deviceNumber(devices[i].ID) < deviceNumber(devices[j].ID)
	})
	return devices, nil
}

// crawlVideoDevices обходит существующие устройства подсистемы video4linux.
func crawlVideoDevices(ctx context.Context) ([]crawler.Device, error) {
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Env: map[string]string{"SUBSYSTEM": "video4linux"},
	})

	queue := make(chan crawler.Device, 16)
	errs := make(chan error, 4)
	quit := crawler.ExistingDevices(queue, errs, rules)

	var out []crawler.Device
	for {
		select {
		case <-ctx.Done():
			stopCrawl(quit, queue)
			return nil, ctx.Err()
		case err := <-errs:
			stopCrawl(quit, queue)
			return nil, err
		case dev, ok := <-queue:
			if !ok {
				return out, nil
			}
			out = append(out, dev)
		}
	}
}

// stopCrawl просит обход остановиться и дочитывает очередь, чтобы горутина обхода не зависла.
func stopCrawl(quit chan struct{}, queue chan crawler.Device) {
	select {
	case quit <- struct{}{}:
	default:
	}
	go func() {
		for range queue {
		}
	}()
}

func readAttr(kobj, attr string) string {
	if kobj == "" {
		return ""
	}
	dir := kobj
	if !filepath.IsAbs(dir) {
		dir = filepath.Join("/sys", dir)
	}
	data, err := os.ReadFile(filepath.Join(dir, attr))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func guessFacing(label string) entity.Facing {
	d := entity.DeviceDescriptor{Label: label}
	if d.IsRear() {
		return entity.FacingBack
	}
	lower := strings.ToLower(label)
	for _, hint := range frontHints {
		if strings.Contains(lower, hint) {
			return entity.FacingFront
		}
	}
	return entity.FacingUnknown
}

func deviceNumber(id string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(id, "video"))
	if err != nil {
		return int(^uint(0) >> 1)
	}
	return n
}

var _ port.DeviceEnumerator = (*UdevEnumerator)(nil)
