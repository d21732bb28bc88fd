// Package fingerprint implements the function-ID set operations: SHA-1
// based classification of a module's functions as "static" (already
// present, byte-for-byte, in a reference module) or "dynamic" (new),
// per spec.md's sorted-merge algorithm.
package fingerprint
