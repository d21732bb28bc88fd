// Package emit assembles the C header, implementation files, and (for
// the linker-section data modes) a sidecar data blob from a decoded
// module and its already-generated function bodies. File layout and
// naming are emit's responsibility; codegen only ever produces text for
// one function at a time and knows nothing about how it is filed.
package emit
