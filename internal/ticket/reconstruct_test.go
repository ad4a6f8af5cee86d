package ticket

import (
	"image"
	"strings"
	"testing"

	"github.com/ironsheep/ticket-vision/internal/composite"
	"github.com/ironsheep/ticket-vision/internal/detection"
	"github.com/ironsheep/ticket-vision/internal/ocr"
)

func numberMapping(ticket, row, col, x, y int) composite.SpriteMapping {
	return composite.SpriteMapping{
		Kind:   composite.KindNumber,
		Ticket: ticket,
		Row:    row,
		Col:    col,
		Sprite: detection.Rect{X: x, Y: y, W: 160, H: 160},
	}
}

func identifierMapping(ticket, x, y, w int) composite.SpriteMapping {
	return composite.SpriteMapping{
		Kind:   composite.KindIdentifier,
		Ticket: ticket,
		Sprite: detection.Rect{X: x, Y: y, W: w, H: 160},
	}
}

// wordAt centers a word of the given size inside a sprite slot.
func wordAt(slot detection.Rect, text string, confidence float64, w, h int) ocr.Word {
	cx := slot.X + slot.W/2
	cy := slot.Y + slot.H/2
	return ocr.Word{
		Text:       text,
		Bounds:     image.Rect(cx-w/2, cy-h/2, cx+w/2, cy+h/2),
		Confidence: confidence,
	}
}

func TestParseCellValue(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"42", 42},
		{"7", 7},
		{"l6", 16},   // lowercase l reads as 1
		{"I6", 16},   // uppercase I reads as 1
		{"O8", 8},    // leading O becomes 0 and drops
		{"S5", 55},   // S reads as 5
		{"B0", 80},   // B reads as 8
		{"4Z", 47},   // Z reads as 7
		{"l60", 0},   // 160 exceeds the cell range
		{"0", 0},     // below the minimum
		{"100", 0},   // above the maximum
		{"", 0},      // nothing recognized
		{"--", 0},    // punctuation only
		{"2 3", 23},  // embedded whitespace dropped
		{"GA", 64},   // confusables only
	}
	for _, c := range cases {
		if got := parseCellValue(c.text); got != c.want {
			t.Errorf("parseCellValue(%q) = %d, expected %d", c.text, got, c.want)
		}
	}
}

func TestIsStrayText(t *testing.T) {
	cases := []struct {
		text  string
		stray bool
	}{
		{"42", false},
		{"l6", false},  // confusable letter does not count as stray
		{"xy", true},   // letters only
		{"x4", false},  // one stray letter, one digit
		{"xyz4", true}, // strays outnumber digits
		{"", false},
	}
	for _, c := range cases {
		if got := isStrayText(c.text); got != c.stray {
			t.Errorf("isStrayText(%q) = %v, expected %v", c.text, got, c.stray)
		}
	}
}

func TestReconstructIdentifier(t *testing.T) {
	cases := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"160/400", "160/400", true},
		{"160 / 400", "160/400", true},
		{"SCHEIN 160/400", "160/400", true},  // printed prefix stripped
		{"160|400", "160/400", true},         // pipe normalized to slash
		{"160\\400", "160/400", true},        // backslash normalized
		{"160:400", "160/400", true},
		{"160.400", "160/400", true},
		{"160I400", "160/400", true},         // lone I between digits
		{"160 400", "160/400", true},         // trailing-pair fallback
		{"x 9 160 400", "160/400", true},     // fallback takes the last two tokens
		{"160", "", false},                   // a single token is ambiguous
		{"", "", false},
		{"NR", "", false},                    // no numeric content
	}
	for _, c := range cases {
		got, ok := reconstructIdentifier(c.raw)
		if ok != c.ok || got != c.want {
			t.Errorf("reconstructIdentifier(%q) = (%q, %v), expected (%q, %v)", c.raw, got, ok, c.want, c.ok)
		}
	}
}

func TestReconstruct_AssignsWordsToCells(t *testing.T) {
	m00 := numberMapping(0, 0, 0, 200, 200)
	m05 := numberMapping(0, 0, 5, 3000, 200)
	id := identifierMapping(0, 3560, 1320, 480)
	mappings := []composite.SpriteMapping{m00, m05, id}

	words := []ocr.Word{
		wordAt(m00.Sprite, "17", 0.9, 80, 120),
		wordAt(m05.Sprite, "88", 0.8, 80, 120),
		wordAt(id.Sprite, "160/400", 0.7, 300, 100),
	}

	results := Reconstruct(1, mappings, words)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Grid[0][0] != 17 {
		t.Errorf("cell (0,0) = %d, expected 17", results[0].Grid[0][0])
	}
	if results[0].Grid[0][5] != 88 {
		t.Errorf("cell (0,5) = %d, expected 88", results[0].Grid[0][5])
	}
	if results[0].Grid[1][1] != 0 {
		t.Errorf("unmapped cell = %d, expected 0", results[0].Grid[1][1])
	}
	if results[0].ID != "160/400" {
		t.Errorf("identifier = %q, expected 160/400", results[0].ID)
	}
}

func TestReconstruct_PicksHighestConfidence(t *testing.T) {
	m := numberMapping(0, 0, 0, 200, 200)
	words := []ocr.Word{
		wordAt(m.Sprite, "3", 0.4, 60, 120),
		wordAt(m.Sprite, "31", 0.9, 80, 120),
	}
	results := Reconstruct(1, []composite.SpriteMapping{m}, words)
	if results[0].Grid[0][0] != 31 {
		t.Errorf("cell = %d, expected the higher-confidence 31", results[0].Grid[0][0])
	}
}

func TestReconstruct_RejectsTinyWords(t *testing.T) {
	m := numberMapping(0, 0, 0, 200, 200)
	// 40px tall against a 160px tile is below the minimum word height.
	words := []ocr.Word{wordAt(m.Sprite, "42", 0.9, 40, 40)}
	results := Reconstruct(1, []composite.SpriteMapping{m}, words)
	if results[0].Grid[0][0] != 0 {
		t.Errorf("cell = %d, expected tiny word rejected", results[0].Grid[0][0])
	}
}

func TestReconstruct_RejectsStrayText(t *testing.T) {
	m := numberMapping(0, 0, 0, 200, 200)
	words := []ocr.Word{wordAt(m.Sprite, "xyz", 0.9, 100, 120)}
	results := Reconstruct(1, []composite.SpriteMapping{m}, words)
	if results[0].Grid[0][0] != 0 {
		t.Errorf("cell = %d, expected stray text rejected", results[0].Grid[0][0])
	}
}

func TestReconstruct_IgnoresWordsOutsideSlots(t *testing.T) {
	m := numberMapping(0, 0, 0, 200, 200)
	words := []ocr.Word{{
		Text:       "55",
		Bounds:     image.Rect(500, 500, 560, 560), // center in the padding
		Confidence: 0.9,
	}}
	results := Reconstruct(1, []composite.SpriteMapping{m}, words)
	if results[0].Grid[0][0] != 0 {
		t.Errorf("cell = %d, expected padding word ignored", results[0].Grid[0][0])
	}
}

func TestReconstruct_PlaceholderIdentifier(t *testing.T) {
	id := identifierMapping(0, 3560, 1320, 480)
	results := Reconstruct(1, []composite.SpriteMapping{id}, nil)
	if !strings.HasPrefix(results[0].ID, "ID-") {
		t.Errorf("identifier = %q, expected an ID- placeholder", results[0].ID)
	}
}

func TestReconstruct_IdentifierWordOrder(t *testing.T) {
	id := identifierMapping(0, 3560, 1320, 480)
	// Words delivered out of order must still read left to right.
	words := []ocr.Word{
		{Text: "400", Bounds: image.Rect(3800, 1360, 3900, 1460), Confidence: 0.8},
		{Text: "160", Bounds: image.Rect(3600, 1360, 3700, 1460), Confidence: 0.8},
	}
	results := Reconstruct(1, []composite.SpriteMapping{id}, words)
	if results[0].ID != "160/400" {
		t.Errorf("identifier = %q, expected 160/400", results[0].ID)
	}
}

func TestReconstruct_BlankTrailingTicket(t *testing.T) {
	// The second ticket contributed no sprites at all (every cell blank and
	// its identifier field clipped away); it still owes a result with a
	// zero grid and a placeholder identifier.
	m := numberMapping(0, 0, 0, 200, 200)
	words := []ocr.Word{wordAt(m.Sprite, "17", 0.9, 80, 120)}

	results := Reconstruct(2, []composite.SpriteMapping{m}, words)
	if len(results) != 2 {
		t.Fatalf("expected one result per ticket (2), got %d", len(results))
	}
	if results[0].Grid[0][0] != 17 {
		t.Errorf("first ticket cell = %d, expected 17", results[0].Grid[0][0])
	}
	for r := 0; r < detection.RowsPerTicket; r++ {
		for c := 0; c < detection.ColsPerTicket; c++ {
			if results[1].Grid[r][c] != 0 {
				t.Fatalf("blank ticket cell (%d,%d) = %d, expected 0", r, c, results[1].Grid[r][c])
			}
		}
	}
	if !strings.HasPrefix(results[1].ID, "ID-") {
		t.Errorf("blank ticket identifier = %q, expected an ID- placeholder", results[1].ID)
	}
}

func TestReconstruct_MultipleTickets(t *testing.T) {
	m0 := numberMapping(0, 0, 0, 200, 200)
	m1 := numberMapping(1, 2, 4, 2440, 3000)
	words := []ocr.Word{
		wordAt(m0.Sprite, "5", 0.9, 60, 120),
		wordAt(m1.Sprite, "90", 0.9, 80, 120),
	}
	results := Reconstruct(2, []composite.SpriteMapping{m0, m1}, words)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Grid[0][0] != 5 || results[1].Grid[2][4] != 90 {
		t.Errorf("grids = %d / %d, expected 5 / 90", results[0].Grid[0][0], results[1].Grid[2][4])
	}
}
