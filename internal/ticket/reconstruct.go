package ticket

import (
	"fmt"
	"math/rand"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/ironsheep/ticket-vision/internal/composite"
	"github.com/ironsheep/ticket-vision/internal/ocr"
)

// Cell value bounds and candidate filters.
const (
	// minCellValue and maxCellValue bound the numbers a ticket can carry;
	// anything outside leaves the cell at 0.
	minCellValue = 1
	maxCellValue = 99

	// minWordHeightFrac rejects recognized text shorter than this fraction
	// of the sprite tile height, too small to be a real digit.
	minWordHeightFrac = 0.33
)

// confusableDigits maps letters the recognizer commonly produces for digits
// in this font back to the digit (applied after uppercasing, so both l and
// I land on 1). Letters outside this table count as stray text.
var confusableDigits = map[rune]rune{
	'I': '1',
	'L': '1',
	'O': '0',
	'B': '8',
	'S': '5',
	'Z': '7',
	'A': '4',
	'G': '6',
	'T': '7',
}

var (
	letterRunRE  = regexp.MustCompile(`[A-Za-z]{2,}`)
	idPatternRE  = regexp.MustCompile(`([0-9]{1,5})\s*/\s*([0-9]{1,5})`)
	nonIDCharsRE = regexp.MustCompile(`[^0-9\s]`)
)

// Reconstruct resolves recognized words against the sprite map into one
// Result per detected ticket. The count is explicit rather than derived
// from the mappings: a fully blank ticket whose identifier field was
// clipped away produces no sprite at all, yet still owes a Result.
//
// Word bounding boxes are in composite-sheet coordinates; a word belongs to
// the sprite slot that contains its center. Reconstruction failures never
// propagate: an unreadable cell stays 0 and an unreadable identifier gets a
// generated placeholder, so one bad cell cannot fail a ticket or the batch.
func Reconstruct(ticketCount int, mappings []composite.SpriteMapping, words []ocr.Word) []Result {
	results := make([]Result, ticketCount)

	for _, m := range mappings {
		if m.Ticket < 0 || m.Ticket >= ticketCount {
			continue
		}
		inSlot := wordsInside(words, m)
		switch m.Kind {
		case composite.KindNumber:
			if v := resolveCell(inSlot, m); v != 0 {
				results[m.Ticket].Grid[m.Row][m.Col] = v
			}
		case composite.KindIdentifier:
			if id, ok := resolveIdentifier(inSlot); ok {
				results[m.Ticket].ID = id
			}
		}
	}

	for i := range results {
		if results[i].ID == "" {
			results[i].ID = placeholderID()
		}
	}
	return results
}

// wordsInside returns the recognized words whose bounding-box center falls
// inside the mapping's sprite rectangle.
func wordsInside(words []ocr.Word, m composite.SpriteMapping) []ocr.Word {
	slot := m.Sprite.ImageRect()
	var out []ocr.Word
	for _, w := range words {
		cx := (w.Bounds.Min.X + w.Bounds.Max.X) / 2
		cy := (w.Bounds.Min.Y + w.Bounds.Max.Y) / 2
		if cx >= slot.Min.X && cx < slot.Max.X && cy >= slot.Min.Y && cy < slot.Max.Y {
			out = append(out, w)
		}
	}
	return out
}

// resolveCell picks the best candidate word for a numeric cell and parses
// it, returning 0 when no acceptable value remains.
func resolveCell(words []ocr.Word, m composite.SpriteMapping) int {
	if len(words) == 0 {
		return 0
	}
	best := words[0]
	for _, w := range words[1:] {
		if w.Confidence > best.Confidence {
			best = w
		}
	}

	// A stray mark recognized as tiny text is not a digit.
	if float64(best.Bounds.Dy()) < minWordHeightFrac*float64(m.Sprite.H) {
		return 0
	}
	if isStrayText(best.Text) {
		return 0
	}
	return parseCellValue(best.Text)
}

// isStrayText reports whether the text is clearly non-numeric: after
// excluding digits and numeral-confusable letters, more letters remain than
// there are digits.
func isStrayText(text string) bool {
	digits, stray := 0, 0
	for _, r := range text {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case unicode.IsLetter(r):
			if _, ok := confusableDigits[unicode.ToUpper(r)]; !ok {
				stray++
			}
		}
	}
	return stray > digits
}

// parseCellValue normalizes recognized text into a cell value: uppercase,
// substitute confusable letters digit-wise, strip everything non-numeric,
// and accept only values in 1..99.
func parseCellValue(text string) int {
	var digits strings.Builder
	for _, r := range strings.ToUpper(text) {
		if d, ok := confusableDigits[r]; ok {
			r = d
		}
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	v, err := strconv.Atoi(digits.String())
	if err != nil || v < minCellValue || v > maxCellValue {
		return 0
	}
	return v
}

// resolveIdentifier reconstructs the printed ticket identifier from the
// words found in the identifier slot, left to right.
func resolveIdentifier(words []ocr.Word) (string, bool) {
	if len(words) == 0 {
		return "", false
	}
	sorted := make([]ocr.Word, len(words))
	copy(sorted, words)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Bounds.Min.X < sorted[j].Bounds.Min.X })

	parts := make([]string, len(sorted))
	for i, w := range sorted {
		parts[i] = w.Text
	}
	return reconstructIdentifier(strings.Join(parts, " "))
}

// reconstructIdentifier repairs OCR noise in an identifier string.
//
// Runs of two or more letters are printed prefixes ("ticket no.") and get
// stripped; characters the recognizer commonly produces for the separator
// are normalized to a slash. The canonical <digits>/<digits> pattern wins;
// failing that, the identifier is assumed to be the trailing pair of
// numeric tokens. No numeric content at all means reconstruction failed.
func reconstructIdentifier(raw string) (string, bool) {
	s := letterRunRE.ReplaceAllString(raw, "")
	s = strings.Map(func(r rune) rune {
		switch r {
		case '|', '\\', 'I', ':', '.':
			return '/'
		}
		return r
	}, s)

	if m := idPatternRE.FindStringSubmatch(s); m != nil {
		return m[1] + "/" + m[2], true
	}

	tokens := strings.Fields(nonIDCharsRE.ReplaceAllString(s, ""))
	if len(tokens) >= 2 {
		return tokens[len(tokens)-2] + "/" + tokens[len(tokens)-1], true
	}
	return "", false
}

// placeholderID generates a recognizable stand-in identifier, signalling a
// failed reconstruction to the caller without failing the ticket.
func placeholderID() string {
	return fmt.Sprintf("ID-%d", rand.Intn(1000))
}
