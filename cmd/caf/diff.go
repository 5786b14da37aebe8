package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/cafvcs/caf/internal/diffengine"
	"github.com/cafvcs/caf/internal/repo"
	"github.com/cafvcs/caf/internal/termcolor"
)

func runDiff(r *repo.Repository, args []string, cw *termcolor.Writer) int {
	if !requireRepo(r) {
		return -1
	}
	var commit1, commit2 string
	if len(args) > 0 {
		commit1 = args[0]
	}
	if len(args) > 1 {
		commit2 = args[1]
	}
	if commit1 == "" || commit2 == "" {
		fmt.Fprintln(os.Stderr, "Both commit1 and commit2 are required")
		return -1
	}

	diffs, err := r.DiffCommits(commit1, commit2)
	if err != nil {
		return reportRepositoryError(err)
	}

	if len(diffs) == 0 {
		fmt.Println("No changes detected between commits")
		return 0
	}

	fmt.Println("Diff:")
	for _, d := range diffs {
		printDiffNode(d, 0)
	}
	renderDiffTree(diffs, cw)
	return 0
}

func printDiffNode(d *diffengine.Diff, depth int) {
	indent := strings.Repeat(" ", depth*3)
	if label := diffLabel(d); label != "" {
		fmt.Printf("%s%s\n", indent, label)
	}
	for _, c := range d.Children {
		printDiffNode(c, depth+1)
	}
}
