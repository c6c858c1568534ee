package codec

import (
	"bufio"
	"errors"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

// Format is a raster image format
type Format struct {
	Name        string
	ContentType string
	Extensions  []string
	// Magic holds the content prefixes identifying the format, '?' matches any byte
	Magic  []string
	Decode func(io.Reader) (image.Image, error)
	// Encode is nil for formats that can't store an alpha channel
	Encode func(io.Writer, image.Image) error
}

// Errors
var (
	ErrUnknownFormat     = errors.New("unknown image format")
	ErrEncodeUnsupported = errors.New("image format can't store an alpha channel")
)

// Formats lists the supported formats in the order they are sniffed
var Formats = []*Format{
	{
		Name:        "png",
		ContentType: "image/png",
		Extensions:  []string{".png"},
		Magic:       []string{"\x89PNG\r\n\x1a\n"},
		Decode:      png.Decode,
		Encode:      png.Encode,
	},
	{
		Name:        "jpeg",
		ContentType: "image/jpeg",
		Extensions:  []string{".jpg", ".jpeg", ".jpe", ".jfif"},
		Magic:       []string{"\xff\xd8"},
		Decode:      jpeg.Decode,
	},
	{
		Name:        "gif",
		ContentType: "image/gif",
		Extensions:  []string{".gif"},
		Magic:       []string{"GIF87a", "GIF89a"},
		Decode:      gif.Decode,
	},
	{
		Name:        "bmp",
		ContentType: "image/bmp",
		Extensions:  []string{".bmp", ".dib"},
		Magic:       []string{"BM"},
		Decode:      bmp.Decode,
		Encode:      bmp.Encode,
	},
	{
		Name:        "tiff",
		ContentType: "image/tiff",
		Extensions:  []string{".tif", ".tiff"},
		Magic:       []string{"II*\x00", "MM\x00*"},
		Decode:      tiff.Decode,
		Encode: func(w io.Writer, m image.Image) error {
			return tiff.Encode(w, m, &tiff.Options{Compression: tiff.Deflate})
		},
	},
	{
		Name:        "webp",
		ContentType: "image/webp",
		Extensions:  []string{".webp"},
		Magic:       []string{"RIFF????WEBPVP8"},
		Decode:      webp.Decode,
	},
	{
		// TGA has no signature, it's only recognized by its extension
		Name:        "tga",
		ContentType: "image/x-tga",
		Extensions:  []string{".tga", ".icb", ".vda", ".vst"},
		Decode:      tga.Decode,
		Encode:      tga.Encode,
	},
}

// ByName returns the format a file name's extension refers to
func ByName(name string) (*Format, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return nil, ErrUnknownFormat
	}

	for _, f := range Formats {
		for _, e := range f.Extensions {
			if e == ext {
				return f, nil
			}
		}
	}

	return nil, ErrUnknownFormat
}

// Decode decodes an image, identifying the format by its content and falling back to the extension of name
func Decode(r io.Reader, name string) (image.Image, *Format, error) {
	br := bufio.NewReader(r)

	for _, f := range Formats {
		for _, magic := range f.Magic {
			b, err := br.Peek(len(magic))
			if err == nil && match(magic, b) {
				img, err := f.Decode(br)
				return img, f, err
			}
		}
	}

	f, err := ByName(name)
	if err != nil {
		return nil, nil, err
	}

	img, err := f.Decode(br)
	return img, f, err
}

// Encode encodes an image in the format the extension of name refers to
func Encode(w io.Writer, img image.Image, name string) (*Format, error) {
	f, err := ByName(name)
	if err != nil {
		return nil, err
	}

	if f.Encode == nil {
		return f, ErrEncodeUnsupported
	}

	return f, f.Encode(w, img)
}

func match(magic string, b []byte) bool {
	if len(magic) != len(b) {
		return false
	}

	for i, c := range b {
		if magic[i] != c && magic[i] != '?' {
			return false
		}
	}

	return true
}
