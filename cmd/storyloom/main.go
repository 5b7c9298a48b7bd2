package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		runCommand(os.Args[2:])
	case "validate":
		validateCommand(os.Args[2:])
	case "rebalance":
		rebalanceCommand(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage:")
	fmt.Fprintln(os.Stderr, "  storyloom run --spec <book.yaml> --out <dir> [--run-id <id>] [--model <id>] [--base-url <url>] [--mock] [--max-attempts N] [--chapters N] [--chapter-delay <dur>]")
	fmt.Fprintln(os.Stderr, "  storyloom validate --spec <book.yaml>")
	fmt.Fprintln(os.Stderr, "  storyloom rebalance --plan <scene_plan.json> [--target N] [--tolerance N]")
}
