// Package imaging provides the pixel-level stages of the ticket pipeline:
// adaptive binarization, morphological cleanup, decode helpers, and the
// validation overlay renderer.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with the origin at the top-left corner;
// X increases rightward and Y increases downward. The BinaryImage buffer is
// addressed through a flat slice indexed y*Width+x.
//
// # Buffer Ownership
//
// Every function allocates and returns fresh buffers; inputs are never
// mutated. Nothing in this package retains state across invocations, so the
// stages are safe to run concurrently on independent images.
//
// # Tuning
//
// The heuristic thresholds (sampling stride, luminance factor, despeckle
// neighbor count) are exported or named constants rather than inline
// literals so the tuning surface stays explicit and testable.
package imaging
