package main

import (
	"fmt"
	"os"

	"github.com/cafvcs/caf/internal/progress"
	"github.com/cafvcs/caf/internal/repo"
	"github.com/cafvcs/caf/internal/termcolor"
)

func runCommit(r *repo.Repository, args []string, _ *termcolor.Writer) int {
	var author, message string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--author":
			if i+1 < len(args) {
				i++
				author = args[i]
			}
		case "--message":
			if i+1 < len(args) {
				i++
				message = args[i]
			}
		}
	}

	if !requireRepo(r) {
		return -1
	}
	if author == "" {
		fmt.Fprintln(os.Stderr, "Author is required")
		return -1
	}
	if message == "" {
		fmt.Fprintln(os.Stderr, "Commit message is required")
		return -1
	}

	spin := progress.New("committing working directory")
	spin.Start()
	hash, err := r.CommitWorkingDir(author, message)
	spin.Stop()
	if err != nil {
		return reportRepositoryError(err)
	}

	fmt.Println("Commit created successfully:")
	fmt.Printf("Author: %s\n", author)
	fmt.Printf("Message: %s\n", message)
	fmt.Printf("Hash: %s\n", hash)
	return 0
}
