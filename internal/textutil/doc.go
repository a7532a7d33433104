// Package textutil provides text normalization shared by duplicate detection
// and package checksums.
//
// Normalization here is a compatibility surface: the field normalization must
// match what the consuming application applies to its own duplicate index, and
// the signature normalization decides which generated cards count as the same
// study item. Change either only together with the relevant tests.
package textutil
