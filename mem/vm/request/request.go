// Package request reads translation requests and writes translation results
// in the formats of the request and output files.
package request

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/sarchlab/segmmu/mem/vm"
	"github.com/sarchlab/segmmu/mem/vm/mmu"
)

// Parse reads "operation address" pairs. Operation 0 is a read and operation
// 1 is a write. Addresses are decimal and only their low 32 bits are kept.
func Parse(r io.Reader) ([]mmu.Request, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 64<<20)
	scanner.Split(bufio.ScanWords)

	var (
		reqs   []mmu.Request
		tokens []string
	)

	for scanner.Scan() {
		tokens = append(tokens, scanner.Text())
		if len(tokens) < 2 {
			continue
		}

		req, err := parsePair(tokens[0], tokens[1])
		if err != nil {
			return nil, fmt.Errorf("request %d: %w", len(reqs), err)
		}

		reqs = append(reqs, req)
		tokens = tokens[:0]
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading requests: %w", err)
	}

	if len(tokens) != 0 {
		return nil, fmt.Errorf("request %d: missing address", len(reqs))
	}

	return reqs, nil
}

func parsePair(opToken, addrToken string) (mmu.Request, error) {
	code, err := strconv.Atoi(opToken)
	if err != nil {
		return mmu.Request{}, fmt.Errorf("operation: %w", err)
	}

	access, err := vm.AccessFromCode(code)
	if err != nil {
		return mmu.Request{}, err
	}

	addr, err := strconv.ParseUint(addrToken, 10, 64)
	if err != nil {
		return mmu.Request{}, fmt.Errorf("address: %w", err)
	}

	return mmu.Request{Access: access, VAddr: vm.VAddr(uint32(addr))}, nil
}

// A TokenWriter writes result tokens separated by single spaces.
type TokenWriter struct {
	w        io.Writer
	nWritten int
}

// NewTokenWriter creates a TokenWriter that writes into w.
func NewTokenWriter(w io.Writer) *TokenWriter {
	return &TokenWriter{w: w}
}

// Write appends the token of a result.
func (t *TokenWriter) Write(result mmu.Result) error {
	sep := " "
	if t.nWritten == 0 {
		sep = ""
	}

	_, err := io.WriteString(t.w, sep+result.Token())
	if err != nil {
		return err
	}

	t.nWritten++

	return nil
}

// NumWritten returns the number of tokens written.
func (t *TokenWriter) NumWritten() int {
	return t.nWritten
}
