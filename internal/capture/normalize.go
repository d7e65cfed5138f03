package capture

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Normalize decodes any supported image format and re-encodes it as PNG.
// Images narrower than minWidth are upscaled with Catmull-Rom so small
// phone crops still carry enough pixels per glyph.
func Normalize(data []byte, minWidth int) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	b := img.Bounds()
	if minWidth > 0 && b.Dx() > 0 && b.Dx() < minWidth {
		targetW := minWidth
		targetH := b.Dy() * minWidth / b.Dx()
		if targetH < 1 {
			targetH = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
		img = dst
	} else if format == "png" {
		return data, nil
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}
