// Package picture implements client-side image capture: decode,
// size-bounded compression, and center-square cropping with a
// progressive fallback ladder.
package picture

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"

	"codeberg.org/ostrova/agora/internal/card"
)

// DecodeError indicates an image payload that could not be decoded
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("image decode failed: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Stage records how far the capture pipeline got before settling
type Stage string

const (
	// StageCompressed means the full pipeline ran: bounded dimensions,
	// center-square crop, size-targeted re-encode
	StageCompressed Stage = "compressed"
	// StageDecoded means compression failed but the decoded image was
	// re-encoded as-is
	StageDecoded Stage = "decoded"
	// StageRaw means the original file bytes were passed through
	StageRaw Stage = "raw"
)

// Result is the outcome of a file selection
type Result struct {
	Payload []byte
	Width   int
	Height  int
	Stage   Stage
}

// Config bounds the compression pipeline
type Config struct {
	// MaxBytes is the target size ceiling for the encoded output
	MaxBytes int
	// MaxDimension bounds the longer image side before cropping
	MaxDimension uint
	// Progress receives fractional pipeline progress in [0,1]
	Progress func(fraction float64)
}

// DefaultConfig returns the standard capture bounds
func DefaultConfig() *Config {
	return &Config{
		MaxBytes:     150 * 1024,
		MaxDimension: 1024,
	}
}

// Capturer turns selected image files into image card options
type Capturer struct {
	config *Config
}

// NewCapturer creates a capturer with the given bounds
func NewCapturer(config *Config) *Capturer {
	if config == nil {
		config = DefaultConfig()
	}
	if config.MaxBytes <= 0 {
		config.MaxBytes = DefaultConfig().MaxBytes
	}
	if config.MaxDimension == 0 {
		config.MaxDimension = DefaultConfig().MaxDimension
	}
	return &Capturer{config: config}
}

// SelectFile runs the capture pipeline on a selected file's bytes.
// The fallback ladder guarantees a non-empty result for any readable
// file: compressed+cropped, then decoded-but-uncompressed, then the raw
// bytes unchanged.
func (c *Capturer) SelectFile(data []byte) (*Result, error) {
	if len(data) == 0 {
		return nil, &DecodeError{Err: fmt.Errorf("empty file")}
	}
	c.report(0)

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		// Unreadable as an image; hand the raw bytes through so the UI
		// is never left empty
		c.report(1)
		return &Result{Payload: data, Stage: StageRaw}, nil
	}
	c.report(0.25)

	processed, err := c.compress(img)
	if err == nil {
		c.report(1)
		return processed, nil
	}

	// Compression failed; fall back to the decoded image re-encoded
	// without bounds
	var buf bytes.Buffer
	if encErr := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); encErr == nil {
		c.report(1)
		bounds := img.Bounds()
		return &Result{
			Payload: buf.Bytes(),
			Width:   bounds.Dx(),
			Height:  bounds.Dy(),
			Stage:   StageDecoded,
		}, nil
	}

	c.report(1)
	return &Result{Payload: data, Stage: StageRaw}, nil
}

// Option wraps a capture result in an image card option
func (r *Result) Option(content string) card.Option {
	return card.Option{
		Kind:    card.KindImage,
		Content: content,
		Origin:  card.OriginUser,
	}
}

func (c *Capturer) compress(img image.Image) (*Result, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("degenerate image %dx%d", width, height)
	}

	// Bound the longer side first so the quality ladder works on a
	// predictable pixel budget
	if uint(width) > c.config.MaxDimension || uint(height) > c.config.MaxDimension {
		if width >= height {
			img = resize.Resize(c.config.MaxDimension, 0, img, resize.Lanczos3)
		} else {
			img = resize.Resize(0, c.config.MaxDimension, img, resize.Lanczos3)
		}
		bounds = img.Bounds()
		width, height = bounds.Dx(), bounds.Dy()
	}
	c.report(0.5)

	img = cropSquare(img)
	side := img.Bounds().Dx()
	c.report(0.75)

	// Walk the quality ladder until the encoded size fits the ceiling;
	// the lowest rung wins even when it still exceeds it
	var encoded []byte
	qualities := []int{90, 80, 70, 60, 50, 40, 30}
	for i, quality := range qualities {
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("re-encode failed: %w", err)
		}
		encoded = buf.Bytes()
		c.report(0.75 + 0.25*float64(i+1)/float64(len(qualities)))
		if len(encoded) <= c.config.MaxBytes {
			break
		}
	}

	return &Result{
		Payload: encoded,
		Width:   side,
		Height:  side,
		Stage:   StageCompressed,
	}, nil
}

func (c *Capturer) report(fraction float64) {
	if c.config.Progress != nil {
		c.config.Progress(fraction)
	}
}

// SquareCrop computes the largest centered square inside a width×height
// image: landscape images crop horizontally centered, portrait images
// vertically centered.
func SquareCrop(width, height int) (x, y, side int) {
	if width > height {
		return (width - height) / 2, 0, height
	}
	return 0, (height - width) / 2, width
}

type subImager interface {
	SubImage(image.Rectangle) image.Image
}

func cropSquare(img image.Image) image.Image {
	bounds := img.Bounds()
	x, y, side := SquareCrop(bounds.Dx(), bounds.Dy())
	rect := image.Rect(bounds.Min.X+x, bounds.Min.Y+y, bounds.Min.X+x+side, bounds.Min.Y+y+side)

	if s, ok := img.(subImager); ok {
		return s.SubImage(rect)
	}

	// Decoders that do not support SubImage get an explicit copy
	out := image.NewRGBA(image.Rect(0, 0, side, side))
	for dy := 0; dy < side; dy++ {
		for dx := 0; dx < side; dx++ {
			out.Set(dx, dy, img.At(rect.Min.X+dx, rect.Min.Y+dy))
		}
	}
	return out
}
