//go:build !debug

package site

const debugAssertions = false
