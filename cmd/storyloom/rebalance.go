package main

import (
	"fmt"
	"os"

	"storyloom/internal/pipeline"
	"storyloom/internal/story"
)

func rebalanceCommand(args []string) {
	var planPath string
	target := pipeline.DefaultTargetWords
	tolerance := pipeline.DefaultWordTolerance
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--plan":
			i++
			if i >= len(args) {
				fmt.Fprintln(os.Stderr, "--plan requires a value")
				os.Exit(1)
			}
			planPath = args[i]
		case "--target":
			i++
			if i >= len(args) || parseIntArg(args[i], &target) != nil {
				fmt.Fprintln(os.Stderr, "--target requires an integer value")
				os.Exit(1)
			}
		case "--tolerance":
			i++
			if i >= len(args) || parseIntArg(args[i], &tolerance) != nil {
				fmt.Fprintln(os.Stderr, "--tolerance requires an integer value")
				os.Exit(1)
			}
		default:
			fmt.Fprintf(os.Stderr, "unknown arg: %s\n", args[i])
			os.Exit(1)
		}
	}
	if planPath == "" {
		usage()
		os.Exit(1)
	}

	b, err := os.ReadFile(planPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	plan, err := story.DecodeScenePlanJSON(b)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	before := plan.SegmentWordSum()
	corrected := plan.RebalanceWordBudget(target, tolerance)
	out, err := corrected.JSON()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(out)
	fmt.Fprintf(os.Stderr, "segment sum: %d -> %d (target %d, tolerance %d)\n",
		before, corrected.SegmentWordSum(), target, tolerance)
}

func parseIntArg(s string, dst *int) error {
	n := 0
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
		return err
	}
	*dst = n
	return nil
}
