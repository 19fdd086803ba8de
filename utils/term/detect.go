package main

import (
	"fmt"
	"os"

	"github.com/antgroup/vaultgit/modules/term"
)

func main() {
	fmt.Fprintf(os.Stderr, "IsCygwinTerminal: %v\n", term.IsCygwinTerminal(os.Stderr.Fd()))
}
