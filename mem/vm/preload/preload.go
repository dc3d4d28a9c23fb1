// Package preload fills the segment table and the page tables from the
// initial state description.
//
// The description has two lines. The first line lists pairs of a segment
// index and the physical address of its page table. The second line lists
// triples of a page index, a segment index, and the physical address of the
// page. An address of 0 leaves the entry unmapped and a negative address marks
// it as faulted.
package preload

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sarchlab/segmmu/mem/vm"
	"github.com/sarchlab/segmmu/mem/vm/addresstranslator"
)

const maxLineSize = 64 << 20

// Load reads the initial state from r and applies it to the translator.
// Missing lines are treated as empty.
func Load(r io.Reader, t *addresstranslator.Comp) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lines := make([]string, 2)
	for i := range lines {
		if !scanner.Scan() {
			break
		}

		lines[i] = scanner.Text()
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading initial state: %w", err)
	}

	if err := ApplySegments(lines[0], t); err != nil {
		return err
	}

	return ApplyPages(lines[1], t)
}

// ApplySegments sets segment table entries from a line of
// "segment address" pairs.
func ApplySegments(line string, t *addresstranslator.Comp) error {
	values, err := parseGroups(line, 2, "segment table")
	if err != nil {
		return err
	}

	for i := 0; i < len(values); i += 2 {
		s, addr := values[i], values[i+1]

		if s < 0 || s >= vm.SegmentTableSize {
			return fmt.Errorf("segment table: segment %d out of range", s)
		}

		err := t.SetSegmentEntry(uint32(s), vm.SlotFromRaw(addr))
		if err != nil {
			return fmt.Errorf("segment table: %w", err)
		}
	}

	return nil
}

// ApplyPages sets page table entries from a line of
// "page segment address" triples. Processing stops silently at the first
// triple whose segment does not have a page table.
func ApplyPages(line string, t *addresstranslator.Comp) error {
	values, err := parseGroups(line, 3, "page tables")
	if err != nil {
		return err
	}

	for i := 0; i < len(values); i += 3 {
		p, s, addr := values[i], values[i+1], values[i+2]

		if s < 0 || s >= vm.SegmentTableSize {
			return fmt.Errorf("page tables: segment %d out of range", s)
		}

		if !t.SegmentEntry(uint32(s)).IsMapped() {
			return nil
		}

		if p < 0 || p >= vm.PageTableSize {
			return fmt.Errorf("page tables: page %d out of range", p)
		}

		err := t.SetPageEntry(uint32(s), uint32(p), vm.SlotFromRaw(addr))
		if err != nil {
			return fmt.Errorf("page tables: %w", err)
		}
	}

	return nil
}

func parseGroups(line string, groupSize int, what string) ([]int64, error) {
	tokens := strings.Fields(line)
	if len(tokens)%groupSize != 0 {
		return nil, fmt.Errorf("%s: %d values is not a multiple of %d",
			what, len(tokens), groupSize)
	}

	values := make([]int64, len(tokens))
	for i, token := range tokens {
		v, err := strconv.ParseInt(token, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: value %d: %w", what, i, err)
		}

		values[i] = v
	}

	return values, nil
}
