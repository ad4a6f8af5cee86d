// Package scan wires the pipeline stages into the two operations the UI
// collaborator drives: fast validation for a live preview, and full
// analysis through the external text recognizer.
package scan

import (
	"context"
	"fmt"
	"image"
	"log"

	"github.com/ironsheep/ticket-vision/internal/composite"
	"github.com/ironsheep/ticket-vision/internal/detection"
	"github.com/ironsheep/ticket-vision/internal/imaging"
	"github.com/ironsheep/ticket-vision/internal/ocr"
	"github.com/ironsheep/ticket-vision/internal/ticket"
)

// ValidationResult is the fast-path outcome: detection geometry only, with
// an annotated preview raster and no recognizer involvement.
type ValidationResult struct {
	IsValid     bool   `json:"is_valid"`
	Message     string `json:"message"`
	TicketCount int    `json:"ticket_count"`

	// Overlay is the binarized image with green boxes and labels per
	// detected ticket, or a red full-frame tint when none was found.
	Overlay *image.RGBA `json:"-"`
}

// AnalysisResult is the full-path outcome: one Result per detected ticket
// plus the composite sheet annotated with every recognized word.
type AnalysisResult struct {
	Results []ticket.Result `json:"results"`
	Debug   *image.RGBA     `json:"-"`
}

// Validate runs binarization, target-square detection and ticket clustering
// on one raster, without cleaning or recognition. It never fails on image
// content: an undetectable photo reports IsValid=false with a user-facing
// message.
func Validate(src image.Image) *ValidationResult {
	bin := imaging.Binarize(src)
	components := detection.DetectTargets(bin)
	tickets, dropped := detection.SegmentTickets(components)

	boxes := make([]image.Rectangle, len(tickets))
	for i := range tickets {
		boxes[i] = tickets[i].Bounds()
	}

	res := &ValidationResult{
		IsValid:     len(tickets) > 0,
		TicketCount: len(tickets),
		Overlay:     imaging.Overlay(bin, boxes),
	}
	switch {
	case len(tickets) == 0:
		res.Message = "no tickets detected - check lighting and framing"
	case dropped > 0:
		res.Message = fmt.Sprintf("detected %d ticket(s); ignored %d incomplete row(s)", len(tickets), dropped)
	default:
		res.Message = fmt.Sprintf("detected %d ticket(s)", len(tickets))
	}
	return res
}

// Analyze runs the full pipeline on one raster: binarize, detect, segment,
// clean, assemble the composite sheet, recognize (bounded by the hard
// 60-second timeout), and reconstruct ticket values.
//
// When no ticket is detected the result carries no tickets and the
// red-tinted preview as its debug raster, so the condition stays
// diagnosable without being an error. Environment-level failures (surface
// creation, recognition timeout) propagate; per-cell reconstruction
// failures never do.
func Analyze(ctx context.Context, src image.Image, engine ocr.Engine) (*AnalysisResult, error) {
	bin := imaging.Binarize(src)
	components := detection.DetectTargets(bin)
	tickets, dropped := detection.SegmentTickets(components)
	if len(tickets) == 0 {
		return &AnalysisResult{Debug: imaging.Overlay(bin, nil)}, nil
	}
	if dropped > 0 {
		log.Printf("analyze: ignored %d row(s) not forming a complete ticket", dropped)
	}

	cleaned := imaging.Clean(bin, nil, imaging.DefaultCleanIterations)
	sheet, err := composite.Assemble(tickets, cleaned)
	if err != nil {
		return nil, err
	}

	words, err := ocr.RecognizeWithTimeout(ctx, engine, sheet.Render())
	if err != nil {
		return nil, err
	}

	return &AnalysisResult{
		Results: ticket.Reconstruct(len(tickets), sheet.Mappings, words),
		Debug:   composite.Annotate(sheet, words),
	}, nil
}
