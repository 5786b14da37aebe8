package main

import (
	"fmt"
	"os"

	"github.com/cafvcs/caf/internal/objects"
	"github.com/cafvcs/caf/internal/repo"
)

func runHashFile(r *repo.Repository, args []string) int {
	var path string
	write := false
	for _, a := range args {
		switch a {
		case "--save", "--write":
			write = true
		default:
			path = a
		}
	}

	if !requireRepo(r) {
		return -1
	}

	content, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "File %s does not exist.\n", path)
		return -1
	}
	hash := objects.HashFile(content)

	if write {
		if _, err := r.Objects().SaveFile(path); err != nil {
			return reportRepositoryError(err)
		}
		fmt.Printf("Hash: %s\n", hash)
		fmt.Printf("Saved file %s to CAF repository\n", path)
		return 0
	}

	fmt.Printf("Hash: %s\n", hash)
	return 0
}
