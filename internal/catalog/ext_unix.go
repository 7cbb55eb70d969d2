//go:build !darwin && !windows

package catalog

// Extension is the native dynamic-module filename extension of this platform.
const Extension = ".so"
