package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"
)

// RecognitionTimeout bounds a single recognition call. On expiry the whole
// analysis fails; there is no partial result and no retry inside the core.
const RecognitionTimeout = 60 * time.Second

// ErrRecognitionTimeout indicates the recognition engine did not respond
// within RecognitionTimeout. The caller may retry with a fresh invocation.
var ErrRecognitionTimeout = errors.New("text recognition timed out")

// Word is one recognized token with its bounding box (in the coordinates of
// the submitted raster) and the engine's confidence in the range 0..1.
type Word struct {
	Text       string          `json:"text"`
	Bounds     image.Rectangle `json:"bounds"`
	Confidence float64         `json:"confidence"`
}

// Engine is the contract for an external text recognizer: one raster in,
// recognized words out. Implementations may be slow and worker- or
// network-bound; they are not required to support concurrent calls.
type Engine interface {
	Recognize(ctx context.Context, img image.Image) ([]Word, error)
}

// RecognizeWithTimeout runs a recognition call bounded by the hard
// RecognitionTimeout. A call that never resolves in time surfaces
// ErrRecognitionTimeout; a caller context canceled for another reason
// surfaces a plain cancellation error instead. The abandoned call itself
// cannot be interrupted beyond the context it was handed.
func RecognizeWithTimeout(ctx context.Context, engine Engine, img image.Image) ([]Word, error) {
	ctx, cancel := context.WithTimeout(ctx, RecognitionTimeout)
	defer cancel()

	type outcome struct {
		words []Word
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		words, err := engine.Recognize(ctx, img)
		done <- outcome{words: words, err: err}
	}()

	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrRecognitionTimeout, ctx.Err())
		}
		return nil, fmt.Errorf("recognition canceled: %w", ctx.Err())
	case o := <-done:
		if o.err != nil {
			return nil, fmt.Errorf("recognition: %w", o.err)
		}
		return o.words, nil
	}
}
