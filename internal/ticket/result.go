// Package ticket turns raw recognizer output back into structured tickets:
// the 3×6 numeric grid and the printed identifier string.
package ticket

import "github.com/ironsheep/ticket-vision/internal/detection"

// Result is the machine-readable outcome for one physical ticket.
//
// A grid value of 0 denotes an intentionally blank cell, not a recognition
// failure; printed numbers are always in 1..99. The identifier is free-form,
// canonically "<digits>/<digits>"; an "ID-" prefix marks a generated
// placeholder for a failed identifier reconstruction.
type Result struct {
	ID   string                                                `json:"ticket_id"`
	Grid [detection.RowsPerTicket][detection.ColsPerTicket]int `json:"grid"`
}
