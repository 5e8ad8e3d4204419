// Package main provides the entry point for wavesim.
// wavesim is a functional emulator for RDNA3 GPU kernels.
//
// For the full CLI, use: go run ./cmd/wavesim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("wavesim - RDNA3 wavefront emulator")
	fmt.Println("")
	fmt.Println("Usage: wavesim [options] <kernel.co|kernel.s>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -kernel    Kernel to run")
	fmt.Println("  -grid      Work groups as x[,y[,z]]")
	fmt.Println("  -block     Threads per work group as x[,y[,z]]")
	fmt.Println("  -arg       Kernel argument (repeatable)")
	fmt.Println("  -config    Path to configuration JSON file")
	fmt.Println("  -v         Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/wavesim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/wavesim' instead.")
	}
}
