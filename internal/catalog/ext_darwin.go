//go:build darwin

package catalog

// Extension is the native dynamic-module filename extension of this platform.
const Extension = ".dylib"
