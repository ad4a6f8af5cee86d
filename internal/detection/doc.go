// Package detection locates the structural anchors of printed tickets: the
// empty target squares a player marks.
//
// Detection runs in two steps. DetectTargets flood-fills the binarized
// photograph (conceptually downsampled to a fixed width to bound cost) and
// keeps squarish, appropriately sized paper regions. SegmentTickets then
// clusters those regions into rows, rows into three-row tickets, and
// interpolates a complete 3×6 grid per ticket even where detection was
// noisy or incomplete.
//
// All geometry is expressed in source-image pixel coordinates through the
// Rect type; the downsampled space is an internal detail of DetectTargets.
//
// The clustering tolerances are fractions of locally observed cell and row
// sizes, which makes the segmenter resolution-independent but also means it
// assumes the rows of one ticket (and vertically stacked tickets) are
// almost touching, as they are on the printed sheets.
package detection
