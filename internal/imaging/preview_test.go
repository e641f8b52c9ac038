package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func TestPreview_Downscales(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		maxDim        int
		wantW, wantH  int
	}{
		{"landscape", 400, 200, 100, 100, 50},
		{"portrait", 120, 480, 240, 60, 240},
		{"square", 300, 300, 64, 64, 64},
		{"already small", 50, 40, 512, 50, 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Preview(createTestPattern(tt.width, tt.height), tt.maxDim)
			if err != nil {
				t.Fatalf("Preview failed: %v", err)
			}
			if res.Width != tt.wantW || res.Height != tt.wantH {
				t.Errorf("size: got %dx%d, want %dx%d", res.Width, res.Height, tt.wantW, tt.wantH)
			}
			if res.OriginalWidth != tt.width || res.OriginalHeight != tt.height {
				t.Errorf("original size: got %dx%d", res.OriginalWidth, res.OriginalHeight)
			}
			if res.MimeType != "image/png" {
				t.Errorf("MimeType: got %s", res.MimeType)
			}

			data, err := base64.StdEncoding.DecodeString(res.ImageBase64)
			if err != nil {
				t.Fatalf("invalid base64: %v", err)
			}
			img, err := png.Decode(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("invalid png: %v", err)
			}
			if img.Bounds().Dx() != tt.wantW || img.Bounds().Dy() != tt.wantH {
				t.Errorf("decoded size: got %v", img.Bounds())
			}
		})
	}
}

func TestPreview_Gray(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 10, 10))
	img.SetGray(0, 0, color.Gray{255})

	res, err := Preview(img, 10)
	if err != nil {
		t.Fatalf("Preview failed: %v", err)
	}
	if res.Width != 10 || res.Height != 10 {
		t.Errorf("size: got %dx%d, want 10x10", res.Width, res.Height)
	}
}

func TestPreview_Invalid(t *testing.T) {
	if _, err := Preview(createTestPattern(4, 4), 0); err == nil {
		t.Error("expected error for zero preview size")
	}
	if _, err := Preview(image.NewNRGBA(image.Rect(0, 0, 0, 0)), 10); err == nil {
		t.Error("expected error for empty image")
	}
}
