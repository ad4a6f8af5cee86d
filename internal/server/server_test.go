package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/ironsheep/ticket-vision/internal/ocr"
)

type nullEngine struct{}

func (nullEngine) Recognize(ctx context.Context, img image.Image) ([]ocr.Word, error) {
	return nil, nil
}

// pngBase64 encodes a blank photo as the wire format expects.
func pngBase64(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

// roundTrip feeds one request line through serve and decodes the response.
func roundTrip(t *testing.T, s *Server, line string) *Response {
	t.Helper()
	var out bytes.Buffer
	if err := s.serve(strings.NewReader(line+"\n"), &out); err != nil {
		t.Fatalf("serve: %v", err)
	}
	var resp Response
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatalf("decode response %q: %v", out.String(), err)
	}
	return &resp
}

func TestServe_Ping(t *testing.T) {
	resp := roundTrip(t, New(), `{"jsonrpc":"2.0","id":1,"method":"ping"}`)
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
	if resp.JSONRPC != "2.0" {
		t.Errorf("jsonrpc = %q", resp.JSONRPC)
	}
	if resp.ID != float64(1) {
		t.Errorf("id = %v, expected 1", resp.ID)
	}
}

func TestServe_MethodNotFound(t *testing.T) {
	resp := roundTrip(t, New(), `{"jsonrpc":"2.0","id":2,"method":"ticket/burn"}`)
	if resp.Error == nil || resp.Error.Code != -32601 {
		t.Fatalf("expected method-not-found, got %+v", resp.Error)
	}
}

func TestServe_SkipsMalformedLines(t *testing.T) {
	var out bytes.Buffer
	in := "this is not json\n" + `{"jsonrpc":"2.0","id":3,"method":"ping"}` + "\n"
	if err := New().serve(strings.NewReader(in), &out); err != nil {
		t.Fatalf("serve: %v", err)
	}
	if n := strings.Count(out.String(), "\n"); n != 1 {
		t.Fatalf("expected 1 response line, got %d: %q", n, out.String())
	}
}

func TestHandleValidate_BlankPhoto(t *testing.T) {
	line := fmt.Sprintf(`{"jsonrpc":"2.0","id":4,"method":"ticket/validate","params":{"image_base64":%q}}`,
		pngBase64(t, 60, 40))
	resp := roundTrip(t, New(), line)
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}

	raw, _ := json.Marshal(resp.Result)
	var v validateResult
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("result shape: %v", err)
	}
	if v.IsValid || v.TicketCount != 0 {
		t.Errorf("blank photo validated as %+v", v)
	}
	if v.OverlayBase64 == "" || v.MimeType != "image/png" {
		t.Error("expected an encoded overlay")
	}
	if _, err := base64.StdEncoding.DecodeString(v.OverlayBase64); err != nil {
		t.Errorf("overlay is not valid base64: %v", err)
	}
}

func TestHandleValidate_BadBase64(t *testing.T) {
	resp := roundTrip(t, New(), `{"jsonrpc":"2.0","id":5,"method":"ticket/validate","params":{"image_base64":"@@@"}}`)
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Fatalf("expected invalid-params, got %+v", resp.Error)
	}
}

func TestHandleValidate_UndecodableImage(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("not an image"))
	line := fmt.Sprintf(`{"jsonrpc":"2.0","id":6,"method":"ticket/validate","params":{"image_base64":%q}}`, payload)
	resp := roundTrip(t, New(), line)
	if resp.Error == nil || resp.Error.Code != -32000 {
		t.Fatalf("expected decode failure, got %+v", resp.Error)
	}
}

func TestHandleAnalyze_NoTickets(t *testing.T) {
	line := fmt.Sprintf(`{"jsonrpc":"2.0","id":7,"method":"ticket/analyze","params":{"image_base64":%q}}`,
		pngBase64(t, 60, 40))
	resp := roundTrip(t, NewWithEngine(nullEngine{}), line)
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}

	raw, _ := json.Marshal(resp.Result)
	var a analyzeResult
	if err := json.Unmarshal(raw, &a); err != nil {
		t.Fatalf("result shape: %v", err)
	}
	if a.Results == nil {
		t.Error("results must encode as an empty array, not null")
	}
	if len(a.Results) != 0 {
		t.Errorf("expected no tickets, got %d", len(a.Results))
	}
	if a.DebugBase64 == "" {
		t.Error("expected the debug raster")
	}
}
