// Package embed formats the snippets that reuse a file on another page:
// an HTML fragment with attribution and a wikitext thumbnail link.
package embed
