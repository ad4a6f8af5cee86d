package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

// charWhitelist restricts recognition to digits, the identifier separators,
// and the letters the post-processor knows how to repair. Fixed at engine
// initialization and never changed per call.
const charWhitelist = "0123456789ABGIOSTZl/|\\.:- "

// Tesseract is a gosseract-backed Engine. The underlying client is not safe
// for concurrent recognition jobs, so calls are serialized on a mutex.
type Tesseract struct {
	mu     sync.Mutex
	client *gosseract.Client
}

var (
	defaultEngine *Tesseract
	defaultOnce   sync.Once
	defaultErr    error
)

// Default returns the process-wide recognition engine, lazily initialized
// on first use and reused across invocations. Its configuration (character
// whitelist, single-block layout mode) is applied exactly once.
func Default() (*Tesseract, error) {
	defaultOnce.Do(func() {
		defaultEngine, defaultErr = newTesseract()
	})
	return defaultEngine, defaultErr
}

func newTesseract() (*Tesseract, error) {
	client := gosseract.NewClient()
	if err := client.SetWhitelist(charWhitelist); err != nil {
		client.Close()
		return nil, fmt.Errorf("set whitelist: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		client.Close()
		return nil, fmt.Errorf("set page segmentation mode: %w", err)
	}
	return &Tesseract{client: client}, nil
}

// Recognize submits the raster to Tesseract and returns word-level results.
// The context is only checked before the engine starts; an in-flight
// Tesseract call cannot be interrupted.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) ([]Word, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode raster: %w", err)
	}
	if err := t.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}

	boxes, err := t.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("get bounding boxes: %w", err)
	}

	words := make([]Word, 0, len(boxes))
	for _, box := range boxes {
		if box.Word == "" {
			continue
		}
		words = append(words, Word{
			Text:       box.Word,
			Bounds:     box.Box,
			Confidence: box.Confidence / 100.0,
		})
	}
	return words, nil
}
