// resttimer reminds you to take regular breaks from the screen.
package main

import (
	"os"

	"resttimer/internal/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
