package caption

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"github.com/justestif/go-image-to-song/internal/mood"
)

const (
	// maxSamples bounds the pixels inspected along the longer image edge.
	maxSamples = 256

	// MaxPixels bounds the declared image area decoded for color analysis.
	// A small compressed upload can declare a huge canvas.
	MaxPixels = 40_000_000
)

// scene holds coarse layout statistics used to recognize landscapes.
type scene struct {
	skyBlue     float64 // mean blue in the top third
	groundGreen float64 // mean green in the bottom third
	groundBlue  float64 // mean blue in the bottom third
	variation   float64 // standard deviation of pixel brightness
}

// ColorAnalysis is the color-derived mood of an image.
type ColorAnalysis struct {
	Mood    mood.Label
	Caption string
	Colors  Colors
	Size    string
}

// AnalyzeColors decodes an image and derives a mood from its dominant color
// and layout. JPEG, PNG and GIF are supported. Images declaring more than
// MaxPixels are rejected with ErrImageTooLarge before any pixel is decoded.
func AnalyzeColors(data []byte) (*ColorAnalysis, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image header: %w", err)
	}
	if area := int64(cfg.Width) * int64(cfg.Height); area > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrImageTooLarge, cfg.Width, cfg.Height, MaxPixels)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("decoding image: %w", ErrInvalidImage)
	}

	r, g, bl := dominantColor(img)
	sc := sceneStats(img)

	brightness := float64(r+g+bl) / 3
	saturation := float64(max(r, g, bl) - min(r, g, bl))
	label, caption := moodFromColors(r, g, bl, brightness, saturation, sc)

	return &ColorAnalysis{
		Mood:    label,
		Caption: caption,
		Colors: Colors{
			Dominant:   fmt.Sprintf("rgb(%d,%d,%d)", r, g, bl),
			Brightness: math.Round(brightness*10) / 10,
			Saturation: saturation,
		},
		Size: fmt.Sprintf("%dx%d", b.Dx(), b.Dy()),
	}, nil
}

// samplePoints calls fn for an evenly spaced grid of pixels, passing the
// 8-bit channels and the pixel's row offset within the image.
func samplePoints(img image.Image, fn func(r, g, b, row int)) {
	bounds := img.Bounds()
	step := max(1, max(bounds.Dx(), bounds.Dy())/maxSamples)
	for y := bounds.Min.Y; y < bounds.Max.Y; y += step {
		for x := bounds.Min.X; x < bounds.Max.X; x += step {
			r, g, b, _ := img.At(x, y).RGBA()
			fn(int(r>>8), int(g>>8), int(b>>8), y-bounds.Min.Y)
		}
	}
}

// dominantColor finds the most common color after quantizing each channel
// to 8 levels, and returns the mean of the pixels in that bucket.
func dominantColor(img image.Image) (r, g, b int) {
	type acc struct{ n, r, g, b int }
	buckets := make(map[int]*acc)
	var best *acc

	samplePoints(img, func(pr, pg, pb, _ int) {
		key := (pr>>5)<<6 | (pg>>5)<<3 | pb>>5
		a, ok := buckets[key]
		if !ok {
			a = &acc{}
			buckets[key] = a
		}
		a.n++
		a.r += pr
		a.g += pg
		a.b += pb
		if best == nil || a.n > best.n {
			best = a
		}
	})

	if best == nil {
		return 128, 128, 128
	}
	return best.r / best.n, best.g / best.n, best.b / best.n
}

func sceneStats(img image.Image) scene {
	height := img.Bounds().Dy()
	var (
		sc               scene
		skyN, groundN, n int
		sum, sumSq       float64
		skyB, grG, grB   float64
	)

	samplePoints(img, func(r, g, b, row int) {
		switch {
		case row < height/3:
			skyB += float64(b)
			skyN++
		case row >= 2*height/3:
			grG += float64(g)
			grB += float64(b)
			groundN++
		}
		v := float64(r+g+b) / 3
		sum += v
		sumSq += v * v
		n++
	})

	if skyN > 0 {
		sc.skyBlue = skyB / float64(skyN)
	}
	if groundN > 0 {
		sc.groundGreen = grG / float64(groundN)
		sc.groundBlue = grB / float64(groundN)
	}
	if n > 0 {
		mean := sum / float64(n)
		sc.variation = math.Sqrt(max(0, sumSq/float64(n)-mean*mean))
	}
	return sc
}

// moodFromColors applies layout rules first, then plain color rules.
func moodFromColors(r, g, b int, brightness, saturation float64, sc scene) (mood.Label, string) {
	switch {
	case (sc.skyBlue > 150 && sc.groundGreen > 130) || (sc.groundBlue > 140 && sc.groundGreen > 120):
		if brightness > 160 {
			return mood.Peaceful, "serene natural landscape with bright sky and greenery"
		}
		return mood.Peaceful, "tranquil nature scene with soft natural lighting"
	case sc.groundBlue > 160 && sc.skyBlue > 140:
		return mood.Peaceful, "calm water scene reflecting the sky above"
	case sc.groundGreen > 150 && g > r && g > b:
		return mood.Nature, "lush forest scene with abundant greenery"
	case r > 160 && brightness > 140 && saturation > 80:
		return mood.Romantic, "warm scenic view with golden lighting"
	case sc.variation > 80:
		if brightness > 150 {
			return mood.Energetic, "dynamic scene with dramatic lighting contrasts"
		}
		return mood.Melancholic, "moody scene with atmospheric shadows and highlights"
	}

	switch {
	case brightness > 200 && saturation > 100:
		return mood.Energetic, "vibrant scene with bold colors and bright lighting"
	case brightness > 180:
		return mood.Happy, "bright and cheerful scene with warm lighting"
	case brightness < 80:
		return mood.Melancholic, "contemplative moment with subtle tones"
	case g > r && g > b && g > 120:
		return mood.Nature, "outdoor scene with natural elements"
	case b > 150:
		return mood.Peaceful, "serene composition with cool blue tones"
	case saturation < 50 && brightness > 100:
		return mood.Calm, "soft composition with muted tones"
	default:
		return mood.Neutral, "balanced composition with natural lighting"
	}
}
