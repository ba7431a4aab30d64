package caption

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/justestif/go-image-to-song/internal/mood"
)

// encodePNG renders a size x size image where fill picks each pixel's color.
func encodePNG(t *testing.T, size int, fill func(x, y int) color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.SetRGBA(x, y, fill(x, y))
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	return buf.Bytes()
}

// headerOnlyPNG returns a PNG signature and IHDR chunk declaring an 8-bit
// RGBA canvas of w x h, with no pixel data.
func headerOnlyPNG(w, h uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")

	chunk := make([]byte, 0, 17)
	chunk = append(chunk, "IHDR"...)
	chunk = binary.BigEndian.AppendUint32(chunk, w)
	chunk = binary.BigEndian.AppendUint32(chunk, h)
	chunk = append(chunk, 8, 6, 0, 0, 0) // depth, RGBA, compression, filter, interlace

	binary.Write(&buf, binary.BigEndian, uint32(len(chunk)-4))
	buf.Write(chunk)
	binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func solid(c color.RGBA) func(x, y int) color.RGBA {
	return func(int, int) color.RGBA { return c }
}

func TestAnalyzeColors(t *testing.T) {
	const size = 60

	tests := []struct {
		name string
		fill func(x, y int) color.RGBA
		want mood.Label
	}{
		{"dark", solid(color.RGBA{10, 10, 10, 255}), mood.Melancholic},
		{"bright pale", solid(color.RGBA{205, 205, 140, 255}), mood.Happy},
		{"forest green", solid(color.RGBA{100, 180, 90, 255}), mood.Nature},
		{"warm sunset", solid(color.RGBA{250, 170, 60, 255}), mood.Romantic},
		{"muted gray", solid(color.RGBA{120, 120, 120, 255}), mood.Calm},
		{"sky over meadow", func(_, y int) color.RGBA {
			if y < size/3 {
				return color.RGBA{100, 150, 230, 255}
			}
			return color.RGBA{60, 160, 60, 255}
		}, mood.Peaceful},
		{"high contrast", func(x, _ int) color.RGBA {
			if x < size*6/10 {
				return color.RGBA{0, 0, 0, 255}
			}
			return color.RGBA{255, 255, 255, 255}
		}, mood.Melancholic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AnalyzeColors(encodePNG(t, size, tt.fill))
			if err != nil {
				t.Fatalf("AnalyzeColors() error = %v", err)
			}
			if got.Mood != tt.want {
				t.Errorf("mood = %s (%s), want %s", got.Mood, got.Caption, tt.want)
			}
			if got.Caption == "" {
				t.Error("caption is empty")
			}
			if got.Size != "60x60" {
				t.Errorf("size = %q, want 60x60", got.Size)
			}
		})
	}
}

func TestAnalyzeColors_DominantColor(t *testing.T) {
	got, err := AnalyzeColors(encodePNG(t, 20, solid(color.RGBA{10, 20, 30, 255})))
	if err != nil {
		t.Fatalf("AnalyzeColors() error = %v", err)
	}
	if got.Colors.Dominant != "rgb(10,20,30)" {
		t.Errorf("dominant = %q, want rgb(10,20,30)", got.Colors.Dominant)
	}
	if got.Colors.Brightness != 20 || got.Colors.Saturation != 20 {
		t.Errorf("brightness, saturation = %v, %v, want 20, 20", got.Colors.Brightness, got.Colors.Saturation)
	}
}

func TestAnalyzeColors_NotAnImage(t *testing.T) {
	if _, err := AnalyzeColors([]byte("definitely not an image")); err == nil {
		t.Error("AnalyzeColors() expected error")
	}
}

func TestAnalyzeColors_HugeCanvasRejected(t *testing.T) {
	tests := []struct {
		name string
		w, h uint32
	}{
		{"30000 square", 30000, 30000},
		{"just over the limit", 8000, 5001},
		{"wide strip", 1 << 30, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := headerOnlyPNG(tt.w, tt.h)
			if len(data) > 64 {
				t.Fatalf("header is %d bytes", len(data))
			}
			_, err := AnalyzeColors(data)
			if !errors.Is(err, ErrImageTooLarge) {
				t.Errorf("AnalyzeColors() error = %v, want ErrImageTooLarge", err)
			}
		})
	}
}
