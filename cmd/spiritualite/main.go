package main

import (
	"fmt"
	"os"

	"github.com/BeneGuydeF/api-ma-spiritualite/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
