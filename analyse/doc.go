// Package analyse decodes word groups into letters with a beam search over
// the candidate segmentations of each group.
//
// Hypotheses are synchronised by the horizontal position they have reached
// rather than by the number of letters read, so that segmentations with
// different shape counts compete fairly. Rows are decoded in reading order;
// a row-final word broken by a hyphen is held over and decided together with
// the first word of the next row.
package analyse
