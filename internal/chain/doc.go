// Package chain composes prompt templates, chat models and plain functions
// into pipelines.
//
// Every stage is a Runnable. Pipe runs stages in sequence, Parallel fans one
// input out to named branches and joins their outputs, Assign adds computed
// keys to its input and Branch picks the first stage whose condition holds.
package chain
