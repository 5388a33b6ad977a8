package app

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"body-scan/internal/domain/entity"
	"body-scan/internal/domain/port"
)

// pose собирает набор из 33 видимых суставов, в котором все этапы проходят проверку.
func pose(shoulderSpan float64) entity.PoseFrame {
	lm := make(entity.PoseFrame, entity.NumJoints)
	for i := range lm {
		lm[i] = entity.Landmark{X: 0.5, Y: 0.5, Visibility: 0.9}
	}
	lm[entity.JointNose] = entity.Landmark{X: 0.5, Y: 0.2, Visibility: 0.95}
	lm[entity.JointLeftEye] = entity.Landmark{X: 0.53, Y: 0.18, Visibility: 0.95}
	lm[entity.JointRightEye] = entity.Landmark{X: 0.47, Y: 0.18, Visibility: 0.95}
	lm[entity.JointLeftShoulder] = entity.Landmark{X: 0.5 + shoulderSpan/2, Y: 0.4, Visibility: 0.9}
	lm[entity.JointRightShoulder] = entity.Landmark{X: 0.5 - shoulderSpan/2, Y: 0.4, Visibility: 0.9}
	lm[entity.JointLeftKnee] = entity.Landmark{X: 0.55, Y: 0.7, Visibility: 0.9}
	lm[entity.JointRightKnee] = entity.Landmark{X: 0.45, Y: 0.7, Visibility: 0.9}
	lm[entity.JointLeftAnkle] = entity.Landmark{X: 0.55, Y: 0.9, Visibility: 0.9}
	lm[entity.JointRightAnkle] = entity.Landmark{X: 0.45, Y: 0.9, Visibility: 0.9}
	return lm
}

func frontPose() entity.PoseFrame { return pose(0.4) }

func sidePose() entity.PoseFrame { return pose(0.1) }

// passingPose набор, который даёт success в этапе phase.
func passingPose(phase entity.Phase) entity.PoseFrame {
	if phase.Orientation() == entity.OrientationSide {
		return sidePose()
	}
	return frontPose()
}

func with(lm entity.PoseFrame, joint int, fn func(*entity.Landmark)) entity.PoseFrame {
	out := lm.Clone()
	fn(&out[joint])
	return out
}

func testFrame(seq uint64) *entity.Frame {
	return &entity.Frame{
		Image:      image.NewRGBA(image.Rect(0, 0, 64, 48)),
		Seq:        seq,
		CapturedAt: time.Now(),
	}
}

type fakeEncoder struct {
	mu  sync.Mutex
	err error
}

func (e *fakeEncoder) Encode(img image.Image, maxSide, quality int) (port.EncodedImage, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return port.EncodedImage{}, e.err
	}
	b := img.Bounds()
	return port.EncodedImage{Data: []byte{0xFF, 0xD8, 0xFF}, Width: b.Dx(), Height: b.Dy()}, nil
}

func (e *fakeEncoder) setErr(err error) {
	e.mu.Lock()
	e.err = err
	e.mu.Unlock()
}

// events журнал закрытия ресурсов, общий для фейков.
type events struct {
	mu  sync.Mutex
	log []string
}

func (e *events) add(s string) {
	e.mu.Lock()
	e.log = append(e.log, s)
	e.mu.Unlock()
}

func (e *events) list() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.log...)
}

type fakeStream struct {
	name   string
	events *events
	reads  atomic.Int64
	err    error
	closed atomic.Bool
}

func (s *fakeStream) Read(ctx context.Context) (*entity.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := s.reads.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return testFrame(uint64(n)), nil
}

func (s *fakeStream) Close() error {
	if s.closed.CompareAndSwap(false, true) && s.events != nil {
		s.events.add("close stream " + s.name)
	}
	return nil
}

type fakeCamera struct {
	mu     sync.Mutex
	events *events
	opened []string
	err    error
	refuse string // ID камеры, которая не открывается
}

func (c *fakeCamera) Open(ctx context.Context, device entity.DeviceDescriptor) (port.VideoStream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	if device.ID == c.refuse {
		return nil, errors.New("device busy")
	}
	c.opened = append(c.opened, device.ID)
	return &fakeStream{name: device.ID, events: c.events}, nil
}

func (c *fakeCamera) openedIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.opened...)
}

// fakeEstimator отвечает проходящим набором для этапа phase(), терминальный этап означает кадр без тела.
type fakeEstimator struct {
	events   *events
	phase    func() entity.Phase
	result   func(*entity.Frame) (entity.PoseFrame, error)
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	calls    atomic.Int64
	closed   atomic.Bool
}

func (e *fakeEstimator) Estimate(ctx context.Context, frame *entity.Frame) (entity.PoseFrame, error) {
	n := e.inFlight.Add(1)
	defer e.inFlight.Add(-1)
	for {
		seen := e.maxSeen.Load()
		if n <= seen || e.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	e.calls.Add(1)

	if e.result != nil {
		return e.result(frame)
	}
	if e.phase != nil {
		if phase := e.phase(); !phase.IsTerminal() {
			return passingPose(phase), nil
		}
	}
	return nil, nil
}

func (e *fakeEstimator) Close() error {
	if e.closed.CompareAndSwap(false, true) && e.events != nil {
		e.events.add("close estimator")
	}
	return nil
}

type fakeConnector struct {
	failures  int
	attempts  atomic.Int64
	estimator func() *fakeEstimator
}

func (c *fakeConnector) Connect(ctx context.Context) (port.PoseEstimator, error) {
	n := c.attempts.Add(1)
	if int(n) <= c.failures {
		return nil, port.ErrEngineNotReady
	}
	return c.estimator(), nil
}

type fakeEnumerator struct {
	devices []entity.DeviceDescriptor
	err     error
}

func (e *fakeEnumerator) List(ctx context.Context) ([]entity.DeviceDescriptor, error) {
	return e.devices, e.err
}

type recordingHandler struct {
	mu       sync.Mutex
	sessions []*entity.ScanSession
	err      error
}

func (h *recordingHandler) HandleSession(ctx context.Context, s *entity.ScanSession) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions = append(h.sessions, s)
	return h.err
}

var errBoom = errors.New("boom")
