//go:build windows

package catalog

// Extension is the native dynamic-module filename extension of this platform.
const Extension = ".dll"
