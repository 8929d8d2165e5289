// Package boundary decides where the glyph boundaries of a word group lie.
// Upstream binarization often merges touching glyphs into one ink shape; the
// recursive splitter proposes ranked ways to cut such shapes, and detectors
// turn those proposals into candidate shape sequences for a whole group.
package boundary
