// Package rendition resolves which URL to fetch for a file at a display
// width and fetches its bytes.
//
// When a sample URL and the original dimensions are known, the resolver
// first tries a guessed URL derived from the sample. If the guess cannot be
// made, or its bytes cannot be fetched, it asks the authoritative provider
// once and fetches from the confirmed URL. Requested widths never exceed the
// original width.
package rendition
