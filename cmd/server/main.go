package main

import (
	"fmt"
	"os"

	"github.com/moodlog/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "moodlog:", err)
		os.Exit(1)
	}
}
