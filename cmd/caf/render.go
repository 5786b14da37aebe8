// Render helpers layer pterm's styled output on top of the plain,
// machine-parseable lines every command prints unconditionally. They are
// strictly additive: skipped whenever the writer isn't colorized, so piped
// or captured output never gains extra lines a consumer would have to
// filter out.
package main

import (
	"github.com/cafvcs/caf/internal/diffengine"
	"github.com/cafvcs/caf/internal/termcolor"
	"github.com/pterm/pterm"
)

func renderBranchTree(names []string, current string, cw *termcolor.Writer) {
	if !cw.Enabled() || len(names) == 0 {
		return
	}
	items := make([]pterm.BulletListItem, 0, len(names))
	for _, name := range names {
		text := name
		style := pterm.NewStyle(pterm.FgDefault)
		if name == current {
			text = name + "  (current)"
			style = pterm.NewStyle(pterm.FgGreen, pterm.Bold)
		}
		items = append(items, pterm.BulletListItem{Level: 0, Text: text, TextStyle: style})
	}
	_ = pterm.DefaultBulletList.WithItems(items).Render()
}

func renderTagList(names []string, cw *termcolor.Writer) {
	if !cw.Enabled() || len(names) == 0 {
		return
	}
	items := make([]pterm.BulletListItem, 0, len(names))
	for _, name := range names {
		items = append(items, pterm.BulletListItem{Level: 0, Text: name})
	}
	_ = pterm.DefaultBulletList.WithItems(items).Render()
}

func renderDiffTree(diffs []*diffengine.Diff, cw *termcolor.Writer) {
	if !cw.Enabled() || len(diffs) == 0 {
		return
	}
	nodes := make([]pterm.TreeNode, 0, len(diffs))
	for _, d := range diffs {
		nodes = append(nodes, diffTreeNode(d))
	}
	root := pterm.TreeNode{Text: "Diff", Children: nodes}
	_ = pterm.DefaultTree.WithRoot(root).Render()
}

func diffTreeNode(d *diffengine.Diff) pterm.TreeNode {
	node := pterm.TreeNode{Text: diffLabel(d)}
	for _, c := range d.Children {
		node.Children = append(node.Children, diffTreeNode(c))
	}
	return node
}

func diffLabel(d *diffengine.Diff) string {
	switch d.Kind {
	case diffengine.Added:
		return "Added: " + d.Path
	case diffengine.Removed:
		return "Removed: " + d.Path
	case diffengine.Modified:
		return "Modified: " + d.Path
	case diffengine.MovedTo:
		peer := ""
		if d.MovedPeer != nil {
			peer = d.MovedPeer.Path
		}
		return "Moved: " + d.Path + " -> " + peer
	case diffengine.MovedFrom:
		return "" // rendered from the MovedTo side
	default:
		return d.Path
	}
}
