package main

import (
	"fmt"

	"github.com/cafvcs/caf/internal/repo"
	"github.com/cafvcs/caf/internal/termcolor"
)

func runBranch(r *repo.Repository, cw *termcolor.Writer) int {
	if !requireRepo(r) {
		return -1
	}

	names, current, err := r.ListBranches()
	if err != nil {
		return reportRepositoryError(err)
	}

	if len(names) == 0 {
		fmt.Println("No branches found.")
		return 0
	}

	fmt.Println("Branches:")
	for _, name := range names {
		if name == current {
			fmt.Printf("* %s\n", cw.Green(name))
		} else {
			fmt.Printf("  %s\n", name)
		}
	}
	renderBranchTree(names, current, cw)
	return 0
}
