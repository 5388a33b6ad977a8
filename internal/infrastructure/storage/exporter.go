package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"body-scan/internal/domain/entity"
	"body-scan/internal/domain/port"
)

const manifestName = "session.json"

// DirectoryExporter выгружает запечатанную сессию в каталог: манифест и JPEG на этап.
type DirectoryExporter struct {
	root string
}

func NewDirectoryExporter(root string) *DirectoryExporter {
	return &DirectoryExporter{root: root}
}

type manifest struct {
	ID        string          `json:"id"`
	StartedAt time.Time       `json:"started_at"`
	SealedAt  time.Time       `json:"sealed_at"`
	Captures  []manifestEntry `json:"captures"`
	Missing   []entity.Phase  `json:"missing,omitempty"`
}

type manifestEntry struct {
	Phase      entity.Phase      `json:"phase"`
	Label      string            `json:"label"`
	Image      string            `json:"image"`
	Width      int               `json:"width"`
	Height     int               `json:"height"`
	Manual     bool              `json:"manual"`
	CapturedAt time.Time         `json:"captured_at"`
	Landmarks  []entity.Landmark `json:"landmarks"`
}

// SessionDir каталог выгрузки сессии.
func (e *DirectoryExporter) SessionDir(session *entity.ScanSession) string {
	return filepath.Join(e.root, session.ID)
}

// HandleSession пишет файлы через временные имена, чтобы не оставить половину манифеста.
func (e *DirectoryExporter) HandleSession(ctx context.Context, session *entity.ScanSession) error {
	if session == nil || !session.Sealed() {
		return fmt.Errorf("only sealed sessions can be exported")
	}

	dir := e.SessionDir(session)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	m := manifest{
		ID:        session.ID,
		StartedAt: session.StartedAt,
		SealedAt:  session.SealedAt(),
		Missing:   session.Missing(),
	}

	for i, rec := range session.Records() {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := fmt.Sprintf("%02d_%s.jpg", i+1, rec.Phase)
		if err := writeAtomic(filepath.Join(dir, name), rec.Image); err != nil {
			return err
		}
		landmarks := rec.Landmarks
		if landmarks == nil {
			landmarks = entity.PoseFrame{}
		}
		m.Captures = append(m.Captures, manifestEntry{
			Phase:      rec.Phase,
			Label:      rec.Phase.Label(),
			Image:      name,
			Width:      rec.Width,
			Height:     rec.Height,
			Manual:     rec.Manual,
			CapturedAt: rec.CapturedAt,
			Landmarks:  landmarks,
		})
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	return writeAtomic(filepath.Join(dir, manifestName), data)
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	return nil
}

var _ port.SessionHandler = (*DirectoryExporter)(nil)
