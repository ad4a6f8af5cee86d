package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/png"

	"github.com/ironsheep/ticket-vision/internal/imaging"
	"github.com/ironsheep/ticket-vision/internal/ocr"
	"github.com/ironsheep/ticket-vision/internal/scan"
	"github.com/ironsheep/ticket-vision/internal/ticket"
)

// scanArgs carries the raster for both scan methods.
type scanArgs struct {
	// ImageBase64 is the encoded photograph (PNG or JPEG).
	ImageBase64 string `json:"image_base64"`
}

// validateResult is the wire form of a validation outcome.
type validateResult struct {
	IsValid       bool   `json:"is_valid"`
	Message       string `json:"message"`
	TicketCount   int    `json:"ticket_count"`
	OverlayBase64 string `json:"overlay_base64"`
	MimeType      string `json:"mime_type"`
}

// analyzeResult is the wire form of a full analysis outcome.
type analyzeResult struct {
	Results     []ticket.Result `json:"results"`
	DebugBase64 string          `json:"debug_base64"`
	MimeType    string          `json:"mime_type"`
}

func (s *Server) handleValidate(req *Request) *Response {
	src, resp := s.decodeImageParam(req)
	if resp != nil {
		return resp
	}

	v := scan.Validate(src)
	overlay, err := encodePNGBase64(v.Overlay)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "validation failed", err.Error())
	}

	return &Response{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: validateResult{
			IsValid:       v.IsValid,
			Message:       v.Message,
			TicketCount:   v.TicketCount,
			OverlayBase64: overlay,
			MimeType:      "image/png",
		},
	}
}

func (s *Server) handleAnalyze(req *Request) *Response {
	src, resp := s.decodeImageParam(req)
	if resp != nil {
		return resp
	}

	engine := s.engine
	if engine == nil {
		var err error
		engine, err = ocr.Default()
		if err != nil {
			return s.errorResponse(req.ID, -32000, "recognition engine unavailable", err.Error())
		}
	}

	a, err := scan.Analyze(context.Background(), src, engine)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "analysis failed", err.Error())
	}

	debug, err := encodePNGBase64(a.Debug)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "analysis failed", err.Error())
	}

	results := a.Results
	if results == nil {
		results = []ticket.Result{}
	}
	return &Response{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: analyzeResult{
			Results:     results,
			DebugBase64: debug,
			MimeType:    "image/png",
		},
	}
}

// decodeImageParam unmarshals and decodes the raster shared by both scan
// methods; on failure the second return value is the error response.
func (s *Server) decodeImageParam(req *Request) (image.Image, *Response) {
	var a scanArgs
	if err := json.Unmarshal(req.Params, &a); err != nil {
		return nil, s.errorResponse(req.ID, -32602, "invalid params", err.Error())
	}
	raw, err := base64.StdEncoding.DecodeString(a.ImageBase64)
	if err != nil {
		return nil, s.errorResponse(req.ID, -32602, "invalid params", "image_base64 is not valid base64")
	}
	src, err := imaging.DecodeBytes(raw)
	if err != nil {
		return nil, s.errorResponse(req.ID, -32000, "image decode failed", err.Error())
	}
	return src, nil
}

func encodePNGBase64(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
