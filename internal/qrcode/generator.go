package qrcode

import (
	"errors"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// ErrGeneration is returned when encoding the QR image fails.
var ErrGeneration = errors.New("failed to generate qr code")

// Generator produces an encoded image for a text payload. Pure function,
// no persisted state; memoization happens at the record level.
type Generator interface {
	Generate(text string) ([]byte, error)
}

// PNGGenerator renders QR codes as PNG images of a fixed pixel size.
type PNGGenerator struct {
	size int
}

// NewPNGGenerator creates a generator producing size x size pixel images.
func NewPNGGenerator(size int) *PNGGenerator {
	if size <= 0 {
		size = 256
	}
	return &PNGGenerator{size: size}
}

// Generate encodes text into a PNG QR code.
func (g *PNGGenerator) Generate(text string) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: empty text", ErrGeneration)
	}

	png, err := qrcode.Encode(text, qrcode.Medium, g.size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	return png, nil
}
