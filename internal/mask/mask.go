package mask

import (
	"errors"
	"image"
	"image/color"
)

// BT.601 luma weights in 16.16 fixed point. They sum to 1<<16, so a gray pixel maps to itself.
const (
	weightR = 19595
	weightG = 38470
	weightB = 7471
)

// Errors
var (
	ErrBoundsMismatch = errors.New("mask bounds do not match image bounds")
)

// Luminance returns the BT.601 luminance of a color, rounded to the nearest 8-bit value.
// Premultiplied colors are converted to straight RGB first, the color's own alpha is ignored.
func Luminance(c color.Color) uint8 {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return luma(n.R, n.G, n.B)
}

func luma(r, g, b uint8) uint8 {
	return uint8((weightR*uint32(r) + weightG*uint32(g) + weightB*uint32(b) + 1<<15) >> 16)
}

// Grayscale returns the single-channel luminance mask of an image
func Grayscale(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)

	if src, ok := img.(*image.NRGBA); ok {
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			si := src.PixOffset(bounds.Min.X, y)
			di := gray.PixOffset(bounds.Min.X, y)
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				gray.Pix[di] = luma(src.Pix[si], src.Pix[si+1], src.Pix[si+2])
				si += 4
				di++
			}
		}

		return gray
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.SetGray(x, y, color.Gray{Y: Luminance(img.At(x, y))})
		}
	}

	return gray
}

// RGB converts an image to opaque 8-bit RGB, dropping any alpha channel it had
func RGB(img image.Image) *image.NRGBA {
	bounds := img.Bounds()
	dst := image.NewNRGBA(bounds)

	switch src := img.(type) {
	case *image.NRGBA:
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			si := src.PixOffset(bounds.Min.X, y)
			di := dst.PixOffset(bounds.Min.X, y)
			n := bounds.Dx() * 4
			copy(dst.Pix[di:di+n], src.Pix[si:si+n])
			for i := di + 3; i < di+n; i += 4 {
				dst.Pix[i] = 0xff
			}
		}
	case *image.Gray:
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			si := src.PixOffset(bounds.Min.X, y)
			di := dst.PixOffset(bounds.Min.X, y)
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				v := src.Pix[si]
				dst.Pix[di], dst.Pix[di+1], dst.Pix[di+2], dst.Pix[di+3] = v, v, v, 0xff
				si++
				di += 4
			}
		}
	default:
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
				c.A = 0xff
				dst.SetNRGBA(x, y, c)
			}
		}
	}

	return dst
}

// PutAlpha replaces the alpha channel of dst with the values of mask
func PutAlpha(dst *image.NRGBA, mask *image.Gray) error {
	bounds := dst.Bounds()
	if !bounds.Eq(mask.Bounds()) {
		return ErrBoundsMismatch
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		di := dst.PixOffset(bounds.Min.X, y)
		mi := mask.PixOffset(bounds.Min.X, y)
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			dst.Pix[di+3] = mask.Pix[mi]
			di += 4
			mi++
		}
	}

	return nil
}

// Apply returns an RGBA copy of img whose alpha channel is the luminance of each pixel
func Apply(img image.Image) *image.NRGBA {
	dst := RGB(img)

	// Both share the same bounds, so this can't fail
	_ = PutAlpha(dst, Grayscale(dst))

	return dst
}
