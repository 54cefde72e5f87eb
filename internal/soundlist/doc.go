// Package soundlist reads and edits the soundboard application's soundlist
// document.
//
// The document is a semi-structured tag format the soundboard owns: a flat,
// ordered run of self-closing <Sound/> definitions followed by a nested
// <Categories> tree whose leaves reference definitions by flat-list position.
// The grammar is close to XML but is not guaranteed to stay inside any schema
// library's comfort zone, so element location is done with a small dedicated
// scanner that counts nesting depth per tag name.
//
// Mutations parse the document into a tree of node handles, decide every edit
// against that single snapshot, and then apply the edits as localized splices
// in one pass. Regions the parser does not model (hotkey tables, window
// geometry, whatever the soundboard adds next) survive byte-for-byte.
//
// Definition identity is positional: a definition's id is its 0-based index
// in the flat list, and references store only that index. Deleting a
// definition therefore renumbers every reference above it; RemoveAndRenumber
// keeps that pass atomic over one snapshot.
package soundlist
