package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// ErrDecode indicates a source raster could not be obtained or decoded.
// It is fatal to the call that triggered it; the core never retries.
var ErrDecode = errors.New("image decode failed")

// DecodeFile loads and decodes an image file (PNG, JPEG, GIF, TIFF, BMP).
//
// This is the only file I/O the module performs; the pipeline itself
// consumes the decoded raster and never touches the filesystem.
func DecodeFile(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrDecode, path, err)
	}
	return img, nil
}

// DecodeBytes decodes an encoded image payload, as received by the stdio
// service. The format is sniffed from the payload.
func DecodeBytes(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, nil
}
