// Package binary is the lowest layer of wasm2c: a bounds-checked cursor
// over a decoded Wasm module's bytes, plus the LEB128 and little-endian
// primitive decoders every higher layer reads through.
package binary
