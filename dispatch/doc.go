// Package dispatch fans function-body codegen out across a fixed pool of
// worker goroutines and reassembles their output deterministically,
// independent of completion order or worker count.
package dispatch
