package main

import (
	"log"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: worker <replay|streams> [args]")
	}

	switch os.Args[1] {
	case "replay":
		RunReplay(os.Args[2:])
	case "streams":
		RunStreams(os.Args[2:])
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}
