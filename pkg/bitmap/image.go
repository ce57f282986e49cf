package bitmap

import (
	"fmt"
	"image"
	"strings"

	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/imgio"
)

// ToImage interprets raw BGRA words as a top-down image of the given width.
func ToImage(pix []byte, width int) (*image.RGBA, error) {
	if width <= 0 || len(pix)%(width*wordSize) != 0 {
		return nil, fmt.Errorf("%w: %d bytes, width %d", ErrGeometry, len(pix), width)
	}
	height := len(pix) / (width * wordSize)
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < len(pix); i += wordSize {
		img.Pix[i+0] = pix[i+2]
		img.Pix[i+1] = pix[i+1]
		img.Pix[i+2] = pix[i+0]
		img.Pix[i+3] = pix[i+3]
	}
	return img, nil
}

// FromImage flattens img into BGRA words, row by row from the top.
func FromImage(img image.Image) ([]byte, int) {
	rgba := clone.AsRGBA(img)
	b := rgba.Bounds()
	out := make([]byte, 0, b.Dx()*b.Dy()*wordSize)
	for y := 0; y < b.Dy(); y++ {
		row := rgba.Pix[y*rgba.Stride : y*rgba.Stride+b.Dx()*wordSize]
		for i := 0; i < len(row); i += wordSize {
			out = append(out, row[i+2], row[i+1], row[i+0], row[i+3])
		}
	}
	return out, b.Dx()
}

// LoadPixels decodes an image file into BGRA words and its width.
func LoadPixels(path string) ([]byte, int, error) {
	img, err := imgio.Open(path)
	if err != nil {
		return nil, 0, err
	}
	pix, width := FromImage(img)
	return pix, width, nil
}

// SaveImage writes BGRA words as an image. The encoder follows the file
// extension: .png, .jpg/.jpeg or .bmp.
func SaveImage(path string, pix []byte, width int) error {
	img, err := ToImage(pix, width)
	if err != nil {
		return err
	}
	return imgio.Save(path, img, encoderFor(path))
}

func encoderFor(path string) imgio.Encoder {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".bmp"):
		return imgio.BMPEncoder()
	case strings.HasSuffix(lower, ".jpg"), strings.HasSuffix(lower, ".jpeg"):
		return imgio.JPEGEncoder(95)
	default:
		return imgio.PNGEncoder()
	}
}
