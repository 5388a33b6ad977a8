package pose

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/jpeg"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"body-scan/internal/domain/entity"
	"body-scan/internal/domain/port"
)

const frameQuality = 80

// HTTPConnector подключается к движку позы, запущенному отдельным процессом.
//
// GET  /health   отвечает 200, когда модель загружена.
// POST /estimate принимает image/jpeg, ответ {"landmarks": [{"x":..,"y":..,"z":..,"visibility":..}]}.
type HTTPConnector struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
}

// NewHTTPConnector создаёт коннектор с таймаутом на каждый запрос.
func NewHTTPConnector(baseURL string, timeout time.Duration) *HTTPConnector {
	return &HTTPConnector{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		client:  &http.Client{},
	}
}

// Connect проверяет готовность движка. Пока движок грузится, возвращает port.ErrEngineNotReady.
func (c *HTTPConnector) Connect(ctx context.Context) (port.PoseEstimator, error) {
	reqCtx, cancel := c.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("build health request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", port.ErrEngineNotReady, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: health status %d", port.ErrEngineNotReady, resp.StatusCode)
	}

	return &httpEstimator{connector: c}, nil
}

func (c *HTTPConnector) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

type estimateResponse struct {
	Landmarks []entity.Landmark `json:"landmarks"`
}

type httpEstimator struct {
	connector *HTTPConnector
	once      sync.Once
	mu        sync.RWMutex
	closed    bool
}

// Estimate отправляет кадр движку. Пустой список суставов означает, что тело не найдено.
func (e *httpEstimator) Estimate(ctx context.Context, frame *entity.Frame) (entity.PoseFrame, error) {
	e.mu.RLock()
	closed := e.closed
	e.mu.RUnlock()
	if closed {
		return nil, errors.New("pose estimator is closed")
	}
	if frame == nil || frame.Image == nil {
		return nil, errors.New("empty frame")
	}

	var body bytes.Buffer
	if err := jpeg.Encode(&body, frame.Image, &jpeg.Options{Quality: frameQuality}); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}

	reqCtx, cancel := e.connector.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, e.connector.baseURL+"/estimate", &body)
	if err != nil {
		return nil, fmt.Errorf("build estimate request: %w", err)
	}
	req.Header.Set("Content-Type", "image/jpeg")

	resp, err := e.connector.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("estimate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("estimate: status %d", resp.StatusCode)
	}

	var out estimateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode landmarks: %w", err)
	}
	return entity.PoseFrame(out.Landmarks), nil
}

// Close идемпотентен.
func (e *httpEstimator) Close() error {
	e.once.Do(func() {
		e.mu.Lock()
		e.closed = true
		e.mu.Unlock()
		e.connector.client.CloseIdleConnections()
	})
	return nil
}

var _ port.EstimatorConnector = (*HTTPConnector)(nil)
