// Package creec drives a CREEC streaming unit (compression, encryption and
// error-correction coding) through its memory-mapped register block.
//
// A transfer writes a seven-field header, streams the payload as 64-bit
// beats into the write queue, enables the unit, waits for the output beat
// count to become non-zero, then reads the result header and the output
// beats back from the read queue. The header is both an input and an output:
// a decode transfer must be told the flags and pad byte counts reported by
// the encode transfer that produced its input.
package creec
