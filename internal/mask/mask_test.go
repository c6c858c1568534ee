package mask_test

import (
	"image"
	"image/color"
	"testing"

	"github.com/DMarby/additive-mask/internal/mask"
)

func TestLuminance(t *testing.T) {
	tests := []struct {
		Name     string
		Color    color.Color
		Expected uint8
	}{
		{"white", color.NRGBA{255, 255, 255, 255}, 255},
		{"black", color.NRGBA{0, 0, 0, 255}, 0},
		{"mid gray", color.NRGBA{128, 128, 128, 255}, 128},
		{"red", color.NRGBA{255, 0, 0, 255}, 76},
		{"green", color.NRGBA{0, 255, 0, 255}, 150},
		{"blue", color.NRGBA{0, 0, 255, 255}, 29},
		{"ignores alpha", color.NRGBA{255, 0, 0, 10}, 76},
		{"premultiplied", color.RGBA{128, 0, 0, 128}, 76},
		{"gray", color.Gray{Y: 77}, 77},
	}

	for _, test := range tests {
		if l := mask.Luminance(test.Color); l != test.Expected {
			t.Errorf("%s: wrong luminance %d, expected %d", test.Name, l, test.Expected)
		}
	}
}

func TestGrayIdentity(t *testing.T) {
	for v := 0; v < 256; v++ {
		c := color.NRGBA{uint8(v), uint8(v), uint8(v), 255}
		if l := mask.Luminance(c); l != uint8(v) {
			t.Fatalf("gray %d maps to %d", v, l)
		}
	}
}

func texture() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{255, 255, 255, 255})
	img.SetNRGBA(1, 0, color.NRGBA{0, 0, 0, 255})
	img.SetNRGBA(0, 1, color.NRGBA{128, 128, 128, 255})
	img.SetNRGBA(1, 1, color.NRGBA{255, 0, 0, 255})
	return img
}

func TestApply(t *testing.T) {
	t.Run("applies the luminance as alpha", func(t *testing.T) {
		result := mask.Apply(texture())

		expected := []color.NRGBA{
			{255, 255, 255, 255},
			{0, 0, 0, 0},
			{128, 128, 128, 128},
			{255, 0, 0, 76},
		}
		points := []image.Point{{0, 0}, {1, 0}, {0, 1}, {1, 1}}

		for i, p := range points {
			if c := result.NRGBAAt(p.X, p.Y); c != expected[i] {
				t.Errorf("wrong pixel at %v: %v, expected %v", p, c, expected[i])
			}
		}
	})

	t.Run("discards existing alpha", func(t *testing.T) {
		img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
		img.SetNRGBA(0, 0, color.NRGBA{255, 255, 255, 0})

		if c := mask.Apply(img).NRGBAAt(0, 0); c != (color.NRGBA{255, 255, 255, 255}) {
			t.Errorf("wrong pixel %v", c)
		}
	})

	t.Run("un-premultiplies rgba sources", func(t *testing.T) {
		img := image.NewRGBA(image.Rect(0, 0, 1, 1))
		img.SetRGBA(0, 0, color.RGBA{128, 0, 0, 128})

		if c := mask.Apply(img).NRGBAAt(0, 0); c != (color.NRGBA{255, 0, 0, 76}) {
			t.Errorf("wrong pixel %v", c)
		}
	})

	t.Run("expands grayscale sources", func(t *testing.T) {
		img := image.NewGray(image.Rect(0, 0, 1, 1))
		img.SetGray(0, 0, color.Gray{Y: 200})

		if c := mask.Apply(img).NRGBAAt(0, 0); c != (color.NRGBA{200, 200, 200, 200}) {
			t.Errorf("wrong pixel %v", c)
		}
	})

	t.Run("handles paletted sources", func(t *testing.T) {
		palette := color.Palette{color.NRGBA{0, 0, 255, 255}, color.NRGBA{255, 255, 0, 0}}
		img := image.NewPaletted(image.Rect(0, 0, 2, 1), palette)
		img.SetColorIndex(0, 0, 0)
		img.SetColorIndex(1, 0, 1)

		result := mask.Apply(img)
		if c := result.NRGBAAt(0, 0); c != (color.NRGBA{0, 0, 255, 29}) {
			t.Errorf("wrong pixel %v", c)
		}
		if c := result.NRGBAAt(1, 0); c != (color.NRGBA{255, 255, 0, 226}) {
			t.Errorf("wrong pixel %v", c)
		}
	})

	t.Run("keeps the bounds", func(t *testing.T) {
		img := image.NewNRGBA(image.Rect(3, 4, 7, 9))
		if b := mask.Apply(img).Bounds(); !b.Eq(img.Bounds()) {
			t.Errorf("wrong bounds %v", b)
		}
	})
}

func TestPutAlpha(t *testing.T) {
	dst := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	err := mask.PutAlpha(dst, image.NewGray(image.Rect(0, 0, 1, 1)))
	if err != mask.ErrBoundsMismatch {
		t.Errorf("wrong error %v", err)
	}
}
