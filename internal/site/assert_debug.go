//go:build debug

package site

// debugAssertions turns internal composition failures into panics.
const debugAssertions = true
