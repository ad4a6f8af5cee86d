// Package ocr abstracts the external text-recognition engine behind the
// Engine interface and provides the Tesseract-backed default.
//
// The pipeline treats recognition as an opaque, potentially slow service:
// the composite sheet goes in, recognized words with bounding boxes and
// confidence scores come out. Recognition is the single suspension point of
// an otherwise synchronous pipeline and is bounded by a hard 60-second
// timeout through RecognizeWithTimeout.
//
// # Prerequisites
//
// The default engine uses Tesseract via gosseract/v2, so Tesseract and its
// English training data must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// # Concurrency
//
// The default engine is a process-wide singleton created on first use. The
// underlying client does not support concurrent recognition jobs; calls are
// serialized internally, so concurrent analyses queue at this point.
package ocr
