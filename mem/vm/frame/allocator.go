// Package frame provides the allocator that tracks which physical frames are
// in use.
package frame

import (
	"log"
	"math/bits"

	"github.com/sarchlab/segmmu/mem/vm"
)

// An Allocator tracks the free and used physical frames.
type Allocator interface {
	// FindPair returns the lowest frame i such that frames i and i+1 are both
	// free.
	FindPair() (frame int, ok bool)

	// FindSingle returns the lowest free frame.
	FindSingle() (frame int, ok bool)

	// Reserve marks count consecutive frames starting at frame as used.
	Reserve(frame, count int)

	// IsUsed tells if a frame is in use.
	IsUsed(frame int) bool

	// NumFrames returns the total number of frames.
	NumFrames() int

	// NumUsed returns the number of frames in use.
	NumUsed() int
}

const wordBits = 64

// NewAllocator creates an allocator over numFrames frames. Frame 0 holds the
// segment table and is marked as used.
func NewAllocator(numFrames int) Allocator {
	if numFrames < 1 {
		log.Panicf("an allocator needs at least 1 frame, got %d", numFrames)
	}

	a := &bitmapAllocator{
		numFrames: numFrames,
		words:     make([]uint64, (numFrames+wordBits-1)/wordBits),
	}
	a.Reserve(0, 1)

	return a
}

// NewDefaultAllocator creates an allocator that covers the whole physical
// memory.
func NewDefaultAllocator() Allocator {
	return NewAllocator(vm.NumFrames)
}

type bitmapAllocator struct {
	numFrames int
	words     []uint64
}

func (a *bitmapAllocator) FindPair() (int, bool) {
	for i := 0; i < a.numFrames-1; i++ {
		if !a.IsUsed(i) && !a.IsUsed(i+1) {
			return i, true
		}
	}

	return 0, false
}

func (a *bitmapAllocator) FindSingle() (int, bool) {
	for wordID, word := range a.words {
		if word == ^uint64(0) {
			continue
		}

		frame := wordID*wordBits + bits.TrailingZeros64(^word)
		if frame >= a.numFrames {
			break
		}

		return frame, true
	}

	return 0, false
}

func (a *bitmapAllocator) Reserve(frame, count int) {
	if frame < 0 || count < 1 || frame+count > a.numFrames {
		log.Panicf("cannot reserve %d frame(s) from frame %d", count, frame)
	}

	for i := frame; i < frame+count; i++ {
		a.words[i/wordBits] |= 1 << (uint(i) % wordBits)
	}
}

func (a *bitmapAllocator) IsUsed(frame int) bool {
	if frame < 0 || frame >= a.numFrames {
		log.Panicf("frame %d out of range", frame)
	}

	return a.words[frame/wordBits]&(1<<(uint(frame)%wordBits)) != 0
}

func (a *bitmapAllocator) NumFrames() int {
	return a.numFrames
}

func (a *bitmapAllocator) NumUsed() int {
	n := 0
	for _, word := range a.words {
		n += bits.OnesCount64(word)
	}

	return n
}
