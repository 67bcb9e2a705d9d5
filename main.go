// The main package for the stockwatch executable.
package main

import (
	"github.com/JakeFAU/stockwatch/cmd"
)

// main defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
