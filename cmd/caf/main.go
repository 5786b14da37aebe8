// Command caf is the reference CLI for the content-addressable filesystem
// core in internal/repo: init/delete a repository, hash and commit files,
// walk history, manage branches and tags, and diff or merge commits.
package main

import (
	"fmt"
	"os"

	"github.com/cafvcs/caf/internal/cli"
	"github.com/cafvcs/caf/internal/repo"
	"github.com/cafvcs/caf/internal/termcolor"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	gf, args := parseGlobalFlags(os.Args[1:])

	for _, a := range args {
		if a == "--version" {
			fmt.Printf("caf %s (%s)\n", version, commit)
			os.Exit(0)
		}
	}

	cw := termcolor.NewWriter(os.Stdout, gf.colorMode)

	workDir, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Repository error: %v\n", err)
		os.Exit(-1)
	}
	if gf.workDir != "" {
		workDir = gf.workDir
	}
	r := repo.Open(workDir, gf.repoDirName)

	app := cli.NewApp("caf", version)
	app.Stderr = os.Stderr

	app.Register(&cli.Command{
		Name:     "init",
		Summary:  "Create a new repository",
		Usage:    "caf init [<default-branch>]",
		Examples: []string{"caf init", "caf init trunk"},
		Run:      func(args []string) int { return runInit(r, args) },
	})

	app.Register(&cli.Command{
		Name:      "delete-repo",
		Summary:   "Delete the repository",
		Usage:     "caf delete-repo",
		NeedsRepo: true,
		Run:       func(args []string) int { return runDeleteRepo(r) },
	})

	app.Register(&cli.Command{
		Name:      "hash-file",
		Summary:   "Hash a file, optionally saving its content",
		Usage:     "caf hash-file <path> [--save]",
		Examples:  []string{"caf hash-file a.txt", "caf hash-file a.txt --save"},
		NeedsRepo: true,
		Run:       func(args []string) int { return runHashFile(r, args) },
	})

	app.Register(&cli.Command{
		Name:      "commit",
		Summary:   "Snapshot the working directory",
		Usage:     "caf commit --author <name> --message <text>",
		Examples:  []string{`caf commit --author Ada --message "first commit"`},
		NeedsRepo: true,
		Run:       func(args []string) int { return runCommit(r, args, cw) },
	})

	app.Register(&cli.Command{
		Name:      "log",
		Summary:   "Show commit history",
		Usage:     "caf log",
		NeedsRepo: true,
		Run:       func(args []string) int { return runLog(r, args, cw) },
	})

	app.Register(&cli.Command{
		Name:      "branch",
		Summary:   "List branches",
		Usage:     "caf branch",
		NeedsRepo: true,
		Run:       func(args []string) int { return runBranch(r, cw) },
	})

	app.Register(&cli.Command{
		Name:      "add-branch",
		Summary:   "Create a branch",
		Usage:     "caf add-branch <name>",
		NeedsRepo: true,
		Run:       func(args []string) int { return runAddBranch(r, args) },
	})

	app.Register(&cli.Command{
		Name:      "delete-branch",
		Summary:   "Delete a branch",
		Usage:     "caf delete-branch <name>",
		NeedsRepo: true,
		Run:       func(args []string) int { return runDeleteBranch(r, args) },
	})

	app.Register(&cli.Command{
		Name:      "branch-exists",
		Summary:   "Check whether a branch exists",
		Usage:     "caf branch-exists <name>",
		NeedsRepo: true,
		Run:       func(args []string) int { return runBranchExists(r, args) },
	})

	app.Register(&cli.Command{
		Name:      "tags",
		Summary:   "List tags",
		Usage:     "caf tags",
		NeedsRepo: true,
		Run:       func(args []string) int { return runTags(r, cw) },
	})

	app.Register(&cli.Command{
		Name:      "create-tag",
		Summary:   "Create a tag pointing at a commit",
		Usage:     "caf create-tag <name> <target>",
		NeedsRepo: true,
		Run:       func(args []string) int { return runCreateTag(r, args) },
	})

	app.Register(&cli.Command{
		Name:      "delete-tag",
		Summary:   "Delete a tag",
		Usage:     "caf delete-tag <name>",
		NeedsRepo: true,
		Run:       func(args []string) int { return runDeleteTag(r, args) },
	})

	app.Register(&cli.Command{
		Name:      "diff",
		Summary:   "Show the structural diff between two commits",
		Usage:     "caf diff <commit1> <commit2>",
		NeedsRepo: true,
		Run:       func(args []string) int { return runDiff(r, args, cw) },
	})

	app.Register(&cli.Command{
		Name:      "merge",
		Summary:   "Three-way merge two commits",
		Usage:     "caf merge <ours> <theirs>",
		NeedsRepo: true,
		Run:       func(args []string) int { return runMerge(r, args) },
	})

	os.Exit(app.Run(args, cw))
}
