package converter_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/DMarby/additive-mask/internal/converter"
)

func TestRun(t *testing.T) {
	ctx := context.Background()

	setupBatch := func(t *testing.T) (*converter.Converter, string) {
		c, dir := setup(t)
		writeFile(t, dir, "a.png", encode(t, texture(), "a.png"))
		writeFile(t, dir, "b.png", []byte("\x89PNG\r\n\x1a\nbroken"))
		writeFile(t, dir, "c.png", encode(t, texture(), "c.png"))
		return c, dir
	}

	t.Run("processes paths in order", func(t *testing.T) {
		c, dir := setupBatch(t)

		summary, err := c.Run(ctx, []string{"a.png", "missing.png", "c.png"}, converter.Options{})
		if err != nil {
			t.Fatal(err)
		}

		if summary.Converted != 2 || summary.Skipped != 1 {
			t.Errorf("wrong summary %+v", summary)
		}

		expected := []string{"a.png", "missing.png", "c.png"}
		for i, result := range summary.Results {
			if result.Input != expected[i] {
				t.Errorf("wrong result order %d: %s", i, result.Input)
			}
		}

		for _, name := range []string{"a_trans.png", "c_trans.png"} {
			if !exists(dir, name) {
				t.Errorf("%s wasn't written", name)
			}
		}
	})

	t.Run("stops at the first failure", func(t *testing.T) {
		c, dir := setupBatch(t)

		summary, err := c.Run(ctx, []string{"a.png", "b.png", "c.png"}, converter.Options{})
		if !errors.Is(err, converter.ErrDecode) {
			t.Fatalf("wrong error %v", err)
		}

		if summary.Converted != 1 || len(summary.Failures) != 1 {
			t.Errorf("wrong summary %+v", summary)
		}

		if !exists(dir, "a_trans.png") {
			t.Error("output before the failure was removed")
		}

		if exists(dir, "c_trans.png") {
			t.Error("path after the failure was processed")
		}
	})

	t.Run("earlier outputs don't depend on later paths", func(t *testing.T) {
		c, dir := setupBatch(t)

		if _, err := c.Run(ctx, []string{"a.png"}, converter.Options{}); err != nil {
			t.Fatal(err)
		}
		alone, _ := os.ReadFile(filepath.Join(dir, "a_trans.png"))

		c.Run(ctx, []string{"a.png", "b.png", "c.png"}, converter.Options{})
		batch, _ := os.ReadFile(filepath.Join(dir, "a_trans.png"))

		if string(alone) != string(batch) {
			t.Error("output differs")
		}
	})

	t.Run("keeps going when asked to", func(t *testing.T) {
		c, dir := setupBatch(t)

		summary, err := c.Run(ctx, []string{"a.png", "b.png", "c.png"}, converter.Options{KeepGoing: true})
		if !errors.Is(err, converter.ErrDecode) {
			t.Fatalf("wrong error %v", err)
		}

		if summary.Converted != 2 || len(summary.Failures) != 1 {
			t.Errorf("wrong summary %+v", summary)
		}

		if !exists(dir, "c_trans.png") {
			t.Error("path after the failure wasn't processed")
		}
	})

	t.Run("stops on a cancelled context", func(t *testing.T) {
		c, dir := setupBatch(t)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := c.Run(cancelled, []string{"a.png"}, converter.Options{})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("wrong error %v", err)
		}

		if exists(dir, "a_trans.png") {
			t.Error("path was processed")
		}
	})
}

func TestRunParallel(t *testing.T) {
	ctx := context.Background()

	t.Run("converts every path", func(t *testing.T) {
		c, dir := setup(t)

		var paths []string
		for _, name := range []string{"1.png", "2.png", "3.png", "4.png", "5.png"} {
			writeFile(t, dir, name, encode(t, texture(), name))
			paths = append(paths, name)
		}
		paths = append(paths, "missing.png", "1.png", "./1.png")

		summary, err := c.Run(ctx, paths, converter.Options{Workers: 3})
		if err != nil {
			t.Fatal(err)
		}

		// Duplicate outputs are converted once
		if summary.Converted != 5 || summary.Skipped != 1 {
			t.Errorf("wrong summary %+v", summary)
		}

		for i, result := range summary.Results[:5] {
			if result.Input != paths[i] {
				t.Errorf("wrong result order %d: %s", i, result.Input)
			}
		}

		for _, name := range []string{"1_trans.png", "2_trans.png", "3_trans.png", "4_trans.png", "5_trans.png"} {
			if !exists(dir, name) {
				t.Errorf("%s wasn't written", name)
			}
		}
	})

	t.Run("returns the failure", func(t *testing.T) {
		c, dir := setup(t)
		writeFile(t, dir, "a.png", encode(t, texture(), "a.png"))
		writeFile(t, dir, "b.png", []byte("broken"))

		_, err := c.Run(ctx, []string{"a.png", "b.png"}, converter.Options{Workers: 2})
		if !errors.Is(err, converter.ErrDecode) {
			t.Errorf("wrong error %v", err)
		}
	})

	t.Run("keeps going when asked to", func(t *testing.T) {
		c, dir := setup(t)
		writeFile(t, dir, "a.png", encode(t, texture(), "a.png"))
		writeFile(t, dir, "b.png", []byte("broken"))
		writeFile(t, dir, "c.png", encode(t, texture(), "c.png"))

		summary, err := c.Run(ctx, []string{"a.png", "b.png", "c.png"}, converter.Options{Workers: 2, KeepGoing: true})
		if !errors.Is(err, converter.ErrDecode) {
			t.Errorf("wrong error %v", err)
		}

		if summary.Converted != 2 || len(summary.Failures) != 1 {
			t.Errorf("wrong summary %+v", summary)
		}
	})
}
