package main

import (
	"bytes"
	"flag"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/DMarby/additive-mask/internal/cmd"
)

// setFlags sets commandline flags for a single test, restoring them afterwards
func setFlags(t *testing.T, values map[string]string) {
	t.Helper()

	for name, value := range values {
		f := flag.CommandLine.Lookup(name)
		if f == nil {
			t.Fatalf("unknown flag %s", name)
		}

		name, previous := name, f.Value.String()
		t.Cleanup(func() {
			flag.CommandLine.Set(name, previous)
		})

		if err := flag.CommandLine.Set(name, value); err != nil {
			t.Fatal(err)
		}
	}
}

func writeTexture(t *testing.T, path string) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{255, 255, 255, 255})
	img.SetNRGBA(1, 1, color.NRGBA{255, 0, 0, 255})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	writeTexture(t, filepath.Join(dir, "texture.png"))
	if err := os.WriteFile(filepath.Join(dir, "corrupt.png"), []byte("\x89PNG\r\n\x1a\ngarbage"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		Name     string
		Flags    map[string]string
		Paths    []string
		Expected int
	}{
		{"no paths", nil, nil, cmd.ExitSuccess},
		{"missing paths only", nil, []string{"missing.png", "gone.tga"}, cmd.ExitSuccess},
		{"converts", nil, []string{"texture.png", "missing.png"}, cmd.ExitSuccess},
		{"converts in parallel", map[string]string{"workers": "4"}, []string{"texture.png", "missing.png"}, cmd.ExitSuccess},
		{"corrupt file", nil, []string{"corrupt.png"}, cmd.ExitFailure},
		{"corrupt file keeping going", map[string]string{"keep-going": "true"}, []string{"corrupt.png", "texture.png"}, cmd.ExitFailure},
		{"no workers", map[string]string{"workers": "0"}, []string{"texture.png"}, cmd.ExitUsage},
		{"invalid storage", map[string]string{"storage": "bogus"}, []string{"texture.png"}, cmd.ExitUsage},
		{"invalid cache", map[string]string{"cache": "bogus"}, []string{"texture.png"}, cmd.ExitUsage},
		{"nonexistent storage root", map[string]string{"storage-file-path": filepath.Join(dir, "nonexistent")}, []string{"texture.png"}, cmd.ExitUsage},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			setFlags(t, map[string]string{
				"log-level":         "fatal",
				"storage-file-path": dir,
			})
			setFlags(t, test.Flags)

			if code := run(test.Paths); code != test.Expected {
				t.Errorf("wrong exit code %d, expected %d", code, test.Expected)
			}
		})
	}

	if _, err := os.Stat(filepath.Join(dir, "texture_trans.png")); err != nil {
		t.Errorf("output not written: %s", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "missing_trans.png")); err == nil {
		t.Error("output written for a missing path")
	}
}
