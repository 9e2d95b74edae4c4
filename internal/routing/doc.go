// Package routing maps viewer state to URL fragments and back.
//
// A file route looks like "#mediaviewer/File:Foo_bar.jpg". Spaces in titles
// are written as underscores and other reserved characters are
// percent-encoded.
package routing
