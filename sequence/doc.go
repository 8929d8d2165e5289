// Package sequence holds the data model shared by the segmentation and
// decoding searches: shape sequences (one segmentation hypothesis each),
// letter sequences aligned with them, scoring strategies, and the structural
// operations that let a hypothesis span two word groups.
package sequence
