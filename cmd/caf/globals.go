package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/cafvcs/caf/internal/termcolor"
)

type globalFlags struct {
	colorMode   termcolor.ColorMode
	workDir     string
	repoDirName string
}

// parseGlobalFlags extracts --color, --no-color, --dir, and --repo-dir from
// anywhere in args, returning the parsed flags and the remaining arguments.
func parseGlobalFlags(args []string) (globalFlags, []string) {
	gf := globalFlags{colorMode: termcolor.ColorAuto}
	var remaining []string

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch {
		case arg == "--no-color":
			gf.colorMode = termcolor.ColorNever
			continue

		case arg == "--color" && i+1 < len(args):
			mode, err := termcolor.ParseColorMode(args[i+1])
			if err != nil {
				fmt.Fprintf(os.Stderr, "caf: %v\n", err)
				os.Exit(-1)
			}
			gf.colorMode = mode
			i++
			continue

		case arg == "--dir" && i+1 < len(args):
			gf.workDir = args[i+1]
			i++
			continue

		case arg == "--repo-dir" && i+1 < len(args):
			gf.repoDirName = args[i+1]
			i++
			continue
		}

		if val, ok := strings.CutPrefix(arg, "--color="); ok {
			mode, err := termcolor.ParseColorMode(val)
			if err != nil {
				fmt.Fprintf(os.Stderr, "caf: %v\n", err)
				os.Exit(-1)
			}
			gf.colorMode = mode
			continue
		}
		if val, ok := strings.CutPrefix(arg, "--dir="); ok {
			gf.workDir = val
			continue
		}
		if val, ok := strings.CutPrefix(arg, "--repo-dir="); ok {
			gf.repoDirName = val
			continue
		}

		remaining = append(remaining, arg)
	}

	return gf, remaining
}
