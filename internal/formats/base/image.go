package base

import (
	"bytes"
	"image"
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder

	"github.com/FocuswithJustin/docbridge/core/cdm"
)

// ScreenDPI is the resolution assumed for images without physical size.
const ScreenDPI = 96

// ImageSize returns the pixel dimensions of an image, reading only its header.
func ImageSize(img cdm.Image) (width, height int, ok bool) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(img.Bytes))
	if err != nil || cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, false
	}
	return cfg.Width, cfg.Height, true
}

// FitImage returns the display size of an image in millimetres at
// ScreenDPI, scaled down to maxWidth when it is wider. It reports false when
// the image header cannot be read.
func FitImage(img cdm.Image, maxWidth float64) (width, height float64, ok bool) {
	px, py, ok := ImageSize(img)
	if !ok {
		return 0, 0, false
	}
	width = float64(px) * 25.4 / ScreenDPI
	height = float64(py) * 25.4 / ScreenDPI
	if maxWidth > 0 && width > maxWidth {
		height = height * maxWidth / width
		width = maxWidth
	}
	return width, height, true
}
