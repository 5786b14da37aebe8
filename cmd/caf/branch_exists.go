package main

import (
	"fmt"
	"os"

	"github.com/cafvcs/caf/internal/repo"
)

func runBranchExists(r *repo.Repository, args []string) int {
	if !requireRepo(r) {
		return -1
	}
	var name string
	if len(args) > 0 {
		name = args[0]
	}
	if name == "" {
		fmt.Fprintln(os.Stderr, "Branch name is required")
		return -1
	}
	if !r.BranchExists(name) {
		fmt.Fprintf(os.Stderr, "Branch %q does not exist\n", name)
		return -1
	}
	fmt.Printf("Branch %q exists\n", name)
	return 0
}
