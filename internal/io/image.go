package ioutils

import (
	"bytes"
	"context"
	"image"
	_ "image/gif" // GIF decoder registration
	"image/jpeg"
	_ "image/png" // PNG decoder registration
	"math"

	"golang.org/x/image/draw"
)

// JPEGQuality is used for every encoded cover.
const JPEGQuality = 90

// ImageService prepares cover art for export.
//
// Example usage:
//
//	svc := NewImageService()
//
//	// Shrink to fit 1000x1000 and re-encode as JPEG
//	out, err := svc.Process(ctx, data, true, 1000)
type ImageService struct{}

// NewImageService creates a new ImageService.
func NewImageService() *ImageService {
	return &ImageService{}
}

// Process decodes a cover image, optionally shrinks it so neither side
// exceeds maxSize, and returns it as JPEG.
func (s *ImageService) Process(ctx context.Context, data []byte, resize bool, maxSize int) ([]byte, error) {
	if resize && maxSize > 0 {
		return s.ResizeImage(ctx, data, maxSize, maxSize)
	}
	return s.ConvertToJPEG(ctx, data)
}

// ResizeImage shrinks an image to fit within maxWidth x maxHeight,
// preserving the aspect ratio, and returns it as JPEG. Smaller images are
// not enlarged, only re-encoded.
//
// The Catmull-Rom kernel is used for scaling.
//
//	// A 1500x1000 image becomes 1000x667
//	resized, err := svc.ResizeImage(ctx, imageData, 1000, 1000)
func (s *ImageService) ResizeImage(ctx context.Context, data []byte, maxWidth, maxHeight int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	width, height := fitWithin(img.Bounds().Dx(), img.Bounds().Dy(), maxWidth, maxHeight)
	if width == img.Bounds().Dx() && height == img.Bounds().Dy() {
		return encodeJPEG(img)
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return encodeJPEG(dst)
}

// ConvertToJPEG re-encodes any supported image as JPEG.
func (s *ImageService) ConvertToJPEG(ctx context.Context, data []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return encodeJPEG(img)
}

func fitWithin(width, height, maxWidth, maxHeight int) (int, int) {
	if width <= maxWidth && height <= maxHeight {
		return width, height
	}

	ratio := float64(width) / float64(height)
	if float64(maxWidth)/float64(maxHeight) > ratio {
		// height is the limiting side
		return max(1, int(math.Round(float64(maxHeight)*ratio))), maxHeight
	}
	return maxWidth, max(1, int(math.Round(float64(maxWidth)/ratio)))
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
