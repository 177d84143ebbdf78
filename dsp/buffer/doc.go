// Package buffer provides the float64 working buffers used while a transform
// runs. Sample buffers cross the engine boundary as []float32; a Buffer holds
// the widened copy a filter operates on, and a Pool recycles those copies so
// each call starts from freshly zeroed scratch memory without growing the heap.
package buffer
