// Package textutil provides text normalization helpers for display fields
// written into the soundlist document.
//
// Display tags, titles, and artist names come from user input and from remote
// sources; before they are spliced into the document they are NFC-normalized
// and stripped of control characters so the soundboard renders them the same
// way it would render its own output.
package textutil
