package services

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/disintegration/imaging"
)

// logoWidthPx is the width the logo is resampled to before embedding.
const logoWidthPx = 300

// Logo is a PNG-encoded logo with its pixel dimensions.
type Logo struct {
	PNG    []byte
	Width  int
	Height int
}

// AspectRatio returns height divided by width.
func (l *Logo) AspectRatio() float64 {
	if l == nil || l.Width == 0 {
		return 0
	}
	return float64(l.Height) / float64(l.Width)
}

// LoadLogo reads an image file, scales it to widthPx wide and re-encodes it as
// PNG. Any failure is reported as an AssetMissingError.
func LoadLogo(path string, widthPx int) (*Logo, error) {
	if path == "" {
		return nil, &AssetMissingError{Path: path, Err: errors.New("no logo configured")}
	}
	if _, err := os.Stat(path); err != nil {
		return nil, &AssetMissingError{Path: path, Err: err}
	}

	img, err := imaging.Open(path)
	if err != nil {
		return nil, &AssetMissingError{Path: path, Err: fmt.Errorf("decode: %w", err)}
	}
	if widthPx > 0 && img.Bounds().Dx() > widthPx {
		img = imaging.Resize(img, widthPx, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, &AssetMissingError{Path: path, Err: fmt.Errorf("encode: %w", err)}
	}

	b := img.Bounds()
	return &Logo{PNG: buf.Bytes(), Width: b.Dx(), Height: b.Dy()}, nil
}
