// Package graphics holds the geometric page model consumed by the decoder:
// an arena of immutable ink shapes addressed by stable integer IDs, and the
// image → paragraph → row → group hierarchy that orders them for reading.
// Pixel-level analysis stays upstream; the only pixel work done here is the
// projection-based split candidate finder.
package graphics
