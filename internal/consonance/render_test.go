package consonance

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestRenderProducesPNG(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, RenderOptions{}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("expected non-empty output")
	}
	if !bytes.HasPrefix(buf.Bytes(), pngMagic) {
		t.Error("output does not start with the PNG signature")
	}
}

func TestRenderCustomSize(t *testing.T) {
	var small, large bytes.Buffer
	if err := Render(&small, RenderOptions{Width: 400, Height: 200}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if err := Render(&large, RenderOptions{Width: 1600, Height: 800}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if large.Len() <= small.Len() {
		t.Errorf("expected larger image to produce more bytes: small=%d large=%d",
			small.Len(), large.Len())
	}
}

func TestSavePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thumbnail.png")

	if err := SavePNG(path, RenderOptions{Width: 600, Height: 300}); err != nil {
		t.Fatalf("SavePNG failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	if !bytes.HasPrefix(content, pngMagic) {
		t.Error("saved file does not start with the PNG signature")
	}
}

func TestSavePNGBadPath(t *testing.T) {
	if err := SavePNG(filepath.Join(t.TempDir(), "missing", "out.png"), RenderOptions{}); err == nil {
		t.Error("expected error for unwritable path")
	}
}
