package engine

import (
	"sync/atomic"

	. "github.com/meridian-engine/meridian/pkg/common"
)

// exclusionKey perturbs the position key while a singular-extension probe
// excludes the hash move, so partial results never poison the real slot.
const exclusionKey uint64 = 0x9e3779b97f4a7c15

// 24 bytes. The gate makes concurrent access racy-safe: readers and writers
// spin-skip instead of tearing an entry.
type transEntry struct {
	gate       int32
	key32      uint32
	moveDate   uint32
	value      int16
	staticEval int16
	evalMargin int16
	depth      int16
	bound      uint8
}

func (entry *transEntry) Move() Move {
	return Move(entry.moveDate & 0x1fffff)
}

func (entry *transEntry) Date() uint16 {
	return uint16(entry.moveDate >> 21)
}

func (entry *transEntry) SetMoveAndDate(move Move, date uint16) {
	entry.moveDate = uint32(move) + uint32(date)<<21
}

type transTable struct {
	megabytes int
	entries   []transEntry
	date      uint16
	mask      uint32
}

func roundPowerOfTwo(size int) int {
	var x = 1
	for (x << 1) <= size {
		x <<= 1
	}
	return x
}

func newTransTable(megabytes int) *transTable {
	var size = roundPowerOfTwo(1024 * 1024 * megabytes / 24)
	return &transTable{
		megabytes: megabytes,
		entries:   make([]transEntry, size),
		mask:      uint32(size - 1),
	}
}

func (tt *transTable) Size() int {
	return tt.megabytes
}

func (tt *transTable) IncDate() {
	tt.date = (tt.date + 1) & 0x7ff
}

func (tt *transTable) Clear() {
	tt.date = 0
	for i := range tt.entries {
		tt.entries[i] = transEntry{}
	}
}

// Read returns a copy of the probed entry. The copy is taken under the gate
// so it is internally consistent even with concurrent writers.
func (tt *transTable) Read(key uint64) (result transEntry, ok bool) {
	var entry = &tt.entries[uint32(key)&tt.mask]
	if atomic.CompareAndSwapInt32(&entry.gate, 0, 1) {
		if entry.key32 == uint32(key>>32) {
			entry.SetMoveAndDate(entry.Move(), tt.date)
			result = *entry
			ok = true
		}
		atomic.StoreInt32(&entry.gate, 0)
	}
	return
}

func (tt *transTable) Update(key uint64, depth, value, bound int, move Move, staticEval, evalMargin int) {
	var entry = &tt.entries[uint32(key)&tt.mask]
	if atomic.CompareAndSwapInt32(&entry.gate, 0, 1) {
		var replace bool
		if entry.key32 == uint32(key>>32) {
			replace = depth >= int(entry.depth)-3 || bound == boundExact
			if move == MoveEmpty {
				move = entry.Move()
			}
		} else {
			replace = entry.Date() != tt.date ||
				depth >= int(entry.depth)
		}
		if replace {
			entry.key32 = uint32(key >> 32)
			entry.value = int16(value)
			entry.staticEval = int16(staticEval)
			entry.evalMargin = int16(evalMargin)
			entry.depth = int16(depth)
			entry.bound = uint8(bound)
			entry.SetMoveAndDate(move, tt.date)
		}
		atomic.StoreInt32(&entry.gate, 0)
	}
}
