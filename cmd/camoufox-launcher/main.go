package main

import (
	"os"

	"camoufox-launcher/internal/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
