package loaders

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/cockroachdb/errors"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// LoadTexture decodes any registered image format into tightly packed, straight-alpha RGBA8 pixels.
func LoadTexture(path string) (*image.NRGBA, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening texture %s", path)
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding texture %s", path)
	}
	pixels := ToNRGBA(img)
	if pixels.Bounds().Empty() {
		return nil, errors.Newf("texture %s (%s) has no pixels", path, format)
	}
	return pixels, nil
}

/**
 * @brief Returns img as a non-premultiplied RGBA image whose origin is (0,0)
 * and whose stride is 4*width. Texels of an NRGBA source are copied unchanged;
 * premultiplied sources are converted back to straight alpha.
 */
func ToNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	if nrgba, ok := img.(*image.NRGBA); ok && b.Min == (image.Point{}) && nrgba.Stride == 4*b.Dx() {
		return nrgba
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
