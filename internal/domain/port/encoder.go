package port

import "image"

// EncodedImage сжатый снимок
type EncodedImage struct {
	Data   []byte
	Width  int
	Height int
}

// ImageEncoder уменьшает и сжимает снимок
type ImageEncoder interface {
	// Encode уменьшает изображение так, чтобы ни одна сторона не превышала maxSide, и кодирует в JPEG
	Encode(img image.Image, maxSide, quality int) (EncodedImage, error)
}
