//go:build !guarddebug

package guard

// debugChecks turns leak and double-release detection into panics. Build
// with -tags guarddebug to enable it.
const debugChecks = false
