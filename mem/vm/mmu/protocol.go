package mmu

import (
	"fmt"
	"strconv"

	"github.com/sarchlab/segmmu/mem/vm"
)

// A Request asks the MMU to translate an address for an access.
type Request struct {
	Access vm.Access
	VAddr  vm.VAddr
}

// A Result is the outcome of a single translation.
type Result struct {
	ID     string
	Access vm.Access
	VAddr  vm.VAddr
	PAddr  vm.PAddr
	Err    error

	// Cached is true if the translation went through the TLB. Hit is only
	// meaningful when Cached is true.
	Cached bool
	Hit    bool
}

// Failure returns the kind of failure of the translation.
func (r Result) Failure() vm.Failure {
	return vm.FailureOf(r.Err)
}

// OK returns true if the translation produced a physical address.
func (r Result) OK() bool {
	return r.Err == nil
}

// Token returns the result in the format of the output files. A physical
// address is printed in decimal, a page fault as "pf", and any other failure
// as "err". Results of cached translations are prefixed with "h " for TLB hits
// and "m " for misses.
func (r Result) Token() string {
	var token string

	switch r.Failure() {
	case vm.NoFailure:
		token = strconv.FormatUint(uint64(r.PAddr), 10)
	case vm.FailureFault:
		token = "pf"
	default:
		token = "err"
	}

	if !r.Cached {
		return token
	}

	if r.Hit {
		return "h " + token
	}

	return "m " + token
}

func (r Result) String() string {
	return fmt.Sprintf("%s 0x%07x -> %s", r.Access, uint32(r.VAddr), r.Token())
}
