// Package fuzztests houses Go fuzz harnesses for scenario files: decoding
// arbitrary TOML, lowering the declared types and running the cases. They
// guard against panics and runaway relation checks on malformed input.
package fuzztests
