package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &errOut
	err := app.Run(append([]string{"compress"}, args...))
	return out.String(), err
}

func writeGradient(t *testing.T, dir string, w, h int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 12), G: uint8(y * 12), B: uint8((x + y) * 6), A: 255})
		}
	}
	path := filepath.Join(dir, "input.png")
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("Failed to write input: %v", err)
	}
	return path
}

func TestDemo(t *testing.T) {
	out, err := runApp(t, "demo")
	if err != nil {
		t.Fatalf("demo failed: %v", err)
	}
	for _, want := range []string{"svd/2 8x8 efficiency=79.6875%", "dct/10 8x8 efficiency=15.6250%"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestDemo_WritesPreviews(t *testing.T) {
	dir := t.TempDir()
	if _, err := runApp(t, "demo", "--output-dir", dir); err != nil {
		t.Fatalf("demo failed: %v", err)
	}
	for _, name := range []string{"original.png", "svd-2.png", "dct-10.png"} {
		img, err := imaging.Open(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("Expected %s to be written: %v", name, err)
		}
		if b := img.Bounds(); b.Dx() != 512 || b.Dy() != 512 {
			t.Errorf("Expected %s to be 512x512, got %v", name, b)
		}
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	input := writeGradient(t, dir, 16, 12)
	output := filepath.Join(dir, "out.png")

	out, err := runApp(t, "--json", "run", "-i", input, "-o", output, "-a", "svd", "-p", "1", "--inflate", "2")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	var report struct {
		Source string `json:"source"`
		Stats  struct {
			Algorithm string `json:"algorithm"`
			Rows      int    `json:"rows"`
			Cols      int    `json:"cols"`
		} `json:"stats"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("Expected JSON output, got %q: %v", out, err)
	}
	if report.Stats.Algorithm != "svd" || report.Stats.Rows != 12 || report.Stats.Cols != 16 {
		t.Errorf("Unexpected report: %+v", report)
	}

	img, err := imaging.Open(output)
	if err != nil {
		t.Fatalf("Expected output image: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 32 || b.Dy() != 24 {
		t.Errorf("Expected 32x24 output, got %v", b)
	}
}

func TestRun_Errors(t *testing.T) {
	dir := t.TempDir()
	input := writeGradient(t, dir, 10, 10)
	output := filepath.Join(dir, "out.png")

	tests := []struct {
		name string
		args []string
	}{
		{"unknown algorithm", []string{"run", "-i", input, "-o", output, "-a", "wavelet"}},
		{"rank too high", []string{"run", "-i", input, "-o", output, "-a", "svd", "-p", "10"}},
		{"unknown retention", []string{"run", "-i", input, "-o", output, "--retention", "random"}},
		{"reject remainder", []string{"run", "-i", input, "-o", output, "--remainder", "reject"}},
		{"missing input", []string{"run", "-i", filepath.Join(dir, "missing.png"), "-o", output}},
		{"negative workers", []string{"--workers", "-1", "demo"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := runApp(t, tt.args...); err == nil {
				t.Error("Expected an error")
			}
		})
	}
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Error("No output should be written for failed runs")
	}
}

func TestComponent(t *testing.T) {
	dir := t.TempDir()
	input := writeGradient(t, dir, 8, 6)
	output := filepath.Join(dir, "component.png")

	out, err := runApp(t, "component", "-i", input, "-o", output, "-r", "0")
	if err != nil {
		t.Fatalf("component failed: %v", err)
	}
	if !strings.HasPrefix(out, "rank 0 singular values:") {
		t.Errorf("Unexpected output %q", out)
	}
	if _, err := imaging.Open(output); err != nil {
		t.Errorf("Expected component image: %v", err)
	}

	if _, err := runApp(t, "component", "-i", input, "-o", output, "-r", "6"); err == nil {
		t.Error("Expected rank 6 of a 6x8 image to fail")
	}
}
