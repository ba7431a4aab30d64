// Package caption turns an uploaded image into a caption and a mood label.
//
// A remote captioning model is tried first; the caption's words pick the
// mood when they can. Color analysis covers images the model cannot
// describe and moods the caption does not name. Analysis never fails for a
// valid image: the last resort is a neutral description.
package caption

import (
	"context"
	"errors"

	"github.com/justestif/go-image-to-song/internal/mood"
)

// Method records how a result was produced.
type Method string

const (
	MethodModel   Method = "model_caption"
	MethodColor   Method = "color_analysis"
	MethodNeutral Method = "fallback"
)

// NeutralCaption is returned when nothing could describe the image.
const NeutralCaption = "a beautiful scene captured in an image"

// MaxImageBytes is the largest accepted upload.
const MaxImageBytes = 10 << 20

var (
	// ErrInvalidImage is returned for empty or non-image uploads.
	ErrInvalidImage = errors.New("invalid image")

	// ErrImageTooLarge is returned for uploads over the size limit.
	ErrImageTooLarge = errors.New("image too large")
)

// Captioner describes an image in a short sentence.
type Captioner interface {
	Caption(ctx context.Context, image []byte, contentType string) (string, error)
}

// Colors summarizes an image's dominant color.
type Colors struct {
	Dominant   string  `json:"dominant"`
	Brightness float64 `json:"brightness"`
	Saturation float64 `json:"saturation"`
}

// Result is the outcome of analyzing one image.
type Result struct {
	Caption    string     `json:"caption"`
	Mood       mood.Label `json:"mood"`
	Confidence float64    `json:"confidence"`
	Method     Method     `json:"analysis_method"`
	Colors     *Colors    `json:"colors,omitempty"`
	Size       string     `json:"size,omitempty"`
	Cached     bool       `json:"cached"`
}

func neutralResult() *Result {
	return &Result{
		Caption:    NeutralCaption,
		Mood:       mood.Neutral,
		Confidence: 0.5,
		Method:     MethodNeutral,
	}
}
