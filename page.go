package numbank

import (
	"math/big"
	"unsafe"
)

const (
	blockInUse uint8 = 1 << iota
	blockHeap
)

type blockHeader struct {
	flags uint8
	size  int32
}

// pageAllocator owns the contiguous word region backing every slot of one
// bank. Slot i, part p lives at block i*scale+p. Blocks are handed out with
// their capacity clipped to the block, so no two blocks alias: big.Int's
// alias check compares the last element of the full capacity.
type pageAllocator struct {
	region []big.Word
	hdr    []blockHeader
	scale  int
	words  int
}

func newPageAllocator(slots, scale, words int) *pageAllocator {
	return &pageAllocator{
		region: make([]big.Word, slots*scale*words),
		hdr:    make([]blockHeader, slots*scale),
		scale:  scale,
		words:  words,
	}
}

func (p *pageAllocator) block(i int) []big.Word {
	o := i * p.words
	return p.region[o : o : o+p.words]
}

// index returns the block b was carved from, or -1 if b is not part of this
// page.
func (p *pageAllocator) index(b []big.Word) int {
	if p == nil || cap(b) == 0 || len(p.region) == 0 {
		return -1
	}
	base := uintptr(unsafe.Pointer(&p.region[0]))
	ptr := uintptr(unsafe.Pointer(&b[:1][0]))
	if ptr < base {
		return -1
	}
	off := (ptr - base) / unsafe.Sizeof(big.Word(0))
	if off >= uintptr(len(p.region)) {
		return -1
	}
	return int(off) / p.words
}

// reset marks every block of a slot free so the slot can be reinitialised.
func (p *pageAllocator) reset(slot int) {
	for i := slot * p.scale; i < (slot+1)*p.scale; i++ {
		p.hdr[i] = blockHeader{}
	}
}

func (p *pageAllocator) count(flag uint8) (n int) {
	for _, h := range p.hdr {
		if h.flags&flag != 0 {
			n++
		}
	}
	return n
}
