package main

import (
	"fmt"
	"os"

	"storyloom/internal/story"
)

func validateCommand(args []string) {
	var specPath string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--spec":
			i++
			if i >= len(args) {
				fmt.Fprintln(os.Stderr, "--spec requires a value")
				os.Exit(1)
			}
			specPath = args[i]
		default:
			fmt.Fprintf(os.Stderr, "unknown arg: %s\n", args[i])
			os.Exit(1)
		}
	}
	if specPath == "" {
		usage()
		os.Exit(1)
	}

	bk, err := story.LoadBookFile(specPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("%s: ok (%d chapters, %d words/chapter target)\n",
		bk.Title, len(bk.Outline), bk.Spec.TargetWordsPerChapter)
}
