package main

import (
	"fmt"
	"os"

	"github.com/cafvcs/caf/internal/repo"
)

func runMerge(r *repo.Repository, args []string) int {
	if !requireRepo(r) {
		return -1
	}
	var oursRev, theirsRev string
	if len(args) > 0 {
		oursRev = args[0]
	}
	if len(args) > 1 {
		theirsRev = args[1]
	}
	if oursRev == "" || theirsRev == "" {
		fmt.Fprintln(os.Stderr, "Both ours and theirs are required")
		return -1
	}

	oursHash, err := r.ResolveCommit(oursRev)
	if err != nil {
		return reportRepositoryError(err)
	}
	theirsHash, err := r.ResolveCommit(theirsRev)
	if err != nil {
		return reportRepositoryError(err)
	}

	result, err := r.MergeCommits(oursHash, theirsHash)
	if err != nil {
		return reportRepositoryError(err)
	}

	fmt.Println("Merge result:")
	fmt.Printf("Tree: %s\n", result.TreeHash)
	if len(result.Conflicts) == 0 {
		fmt.Println("Merge completed with no conflicts.")
		return 0
	}

	fmt.Println("Conflicts:")
	for _, path := range result.Conflicts {
		fmt.Printf("  %s\n", path)
	}
	return 0
}
