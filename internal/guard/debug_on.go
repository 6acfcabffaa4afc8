//go:build guarddebug

package guard

const debugChecks = true
