package main

import (
	"os"

	"github.com/mindmirror/mindmirror/mindmirrorservice"
)

func main() {
	if err := mindmirrorservice.Run(); err != nil {
		os.Exit(1)
	}
}
