package scan

import (
	"github.com/ironsheep/ticket-vision/internal/composite"
	"github.com/ironsheep/ticket-vision/internal/imaging"
	"github.com/ironsheep/ticket-vision/internal/ocr"
)

// The error taxonomy callers can match with errors.Is. Only
// environment-level failures surface as errors; geometric ambiguity and
// weak recognition resolve to safe defaults inside the pipeline.
var (
	// ErrDecodeFailure: the source raster could not be obtained/decoded.
	ErrDecodeFailure = imaging.ErrDecode

	// ErrRenderSurface: an internal drawing surface could not be created.
	ErrRenderSurface = composite.ErrRenderSurface

	// ErrRecognitionTimeout: the engine did not respond within the hard
	// timeout; the caller may retry with a fresh invocation.
	ErrRecognitionTimeout = ocr.ErrRecognitionTimeout
)
