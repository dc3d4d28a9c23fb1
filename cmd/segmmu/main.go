// Command segmmu translates the requests of an input file with a segment and
// page MMU, with and without a TLB.
package main

import "github.com/sarchlab/segmmu/cmd/segmmu/cmd"

func main() {
	cmd.Execute()
}
