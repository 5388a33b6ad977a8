package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	"math"

	"golang.org/x/image/draw"

	"body-scan/internal/domain/port"
)

// Encoder уменьшает и кодирует снимки без OpenCV.
type Encoder struct {
	Scaler draw.Scaler
}

// NewEncoder создаёт кодировщик с билинейным масштабированием.
func NewEncoder() *Encoder {
	return &Encoder{Scaler: draw.ApproxBiLinear}
}

// Encode уменьшает изображение так, чтобы большая сторона не превышала maxSide, и сжимает в JPEG.
func (e *Encoder) Encode(img image.Image, maxSide, quality int) (port.EncodedImage, error) {
	if img == nil {
		return port.EncodedImage{}, errors.New("empty image")
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return port.EncodedImage{}, errors.New("empty image")
	}

	w, h := FitWithin(b.Dx(), b.Dy(), maxSide)
	src := img
	if w != b.Dx() || h != b.Dy() {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		e.Scaler.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
		src = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: clampQuality(quality)}); err != nil {
		return port.EncodedImage{}, err
	}
	return port.EncodedImage{Data: buf.Bytes(), Width: w, Height: h}, nil
}

// FitWithin сохраняет пропорции и ограничивает обе стороны величиной maxSide.
func FitWithin(w, h, maxSide int) (int, int) {
	if maxSide <= 0 || (w <= maxSide && h <= maxSide) {
		return w, h
	}
	if w >= h {
		return maxSide, max(int(math.Round(float64(h)*float64(maxSide)/float64(w))), 1)
	}
	return max(int(math.Round(float64(w)*float64(maxSide)/float64(h))), 1), maxSide
}

func clampQuality(q int) int {
	if q < 1 {
		return jpeg.DefaultQuality
	}
	return min(q, 100)
}

var _ port.ImageEncoder = (*Encoder)(nil)
