package vm

import (
	"fmt"
	"iter"
	"maps"
)

const (
	TRACE_DEPTH = 64 // Default trace ring capacity in records.
)

var _trace_defines = map[string]string{
	"TRACE_DEPTH": fmt.Sprintf("%#v", TRACE_DEPTH),
}

// Record is a machine state snapshot captured before an instruction
// executes.
type Record struct {
	Tick     int
	Ip       uint32
	Word     uint16
	Register [6]uint32
	Cond     bool
	Carry    bool
	Tag      uint32
}

// Trace implements a circular buffer of execution records.
// Once full, the oldest record is overwritten.
type Trace struct {
	Capacity int // Capacity in records; 0 selects TRACE_DEPTH.

	writeIndex int
	size       int
	data       []Record
}

// Defines returns the equates the trace contributes to assembly.
func (tr *Trace) Defines() iter.Seq2[string, string] {
	return maps.All(_trace_defines)
}

// Reset empties the ring and reinitializes the record buffer.
func (tr *Trace) Reset() {
	if tr.Capacity <= 0 {
		tr.Capacity = TRACE_DEPTH
	}
	tr.writeIndex = 0
	tr.size = 0
	tr.data = make([]Record, tr.Capacity)
}

// Append stores a record, overwriting the oldest when full.
func (tr *Trace) Append(rec Record) {
	if tr.data == nil {
		tr.Reset()
	}

	tr.data[tr.writeIndex] = rec

	tr.writeIndex++
	if tr.writeIndex == tr.Capacity {
		tr.writeIndex = 0
	}
	if tr.size < tr.Capacity {
		tr.size++
	}
}

// Len returns the number of records held.
func (tr *Trace) Len() int {
	return tr.size
}

// Records returns an iterator over the held records, oldest first.
func (tr *Trace) Records() iter.Seq[Record] {
	return func(yield func(rec Record) bool) {
		index := tr.writeIndex - tr.size
		if index < 0 {
			index += tr.Capacity
		}
		for n := 0; n < tr.size; n++ {
			if !yield(tr.data[index]) {
				return
			}
			index++
			if index == tr.Capacity {
				index = 0
			}
		}
	}
}

// String returns the trace as a printable table, oldest record first.
func (tr *Trace) String() (text string) {
	for rec := range tr.Records() {
		code := Code{Word: rec.Word}
		text += fmt.Sprintf("%6d %03x: %-32v cond=%-5v carry=%-5v r0=%08x r1=%08x r2=%08x r3=%08x r4=%08x r5=%08x tag=%v\n",
			rec.Tick, rec.Ip, code.String(),
			rec.Cond, rec.Carry,
			rec.Register[0], rec.Register[1], rec.Register[2],
			rec.Register[3], rec.Register[4], rec.Register[5],
			rec.Tag)
	}

	return
}
