package main

import (
	"os"

	scrollfeedcmder "github.com/scrollpedia/scrollfeed/cmd/scrollfeed"
)

func main() {
	cmd := scrollfeedcmder.NewScrollfeedCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
