package mergeengine

import (
	"bytes"
	"sort"

	"github.com/cafvcs/caf/internal/objects"
)

type editType int

const (
	editKeep editType = iota
	editDelete
	editInsert
)

type edit struct {
	Type    editType
	OldLine int
	NewLine int
}

// computeEdits returns the Myers-diff edit script turning oldLines into
// newLines, expressed as a sequence of keep/delete/insert operations
// indexed into each side.
func computeEdits(oldLines, newLines [][]byte) []edit {
	n, m := len(oldLines), len(newLines)
	max := n + m
	if max == 0 {
		return nil
	}
	v := make([]int, 2*max+1)
	trace := make([][]int, 0, max+1)

	for d := 0; d <= max; d++ {
		vCopy := make([]int, len(v))
		copy(vCopy, v)
		trace = append(trace, vCopy)

		for k := -d; k <= d; k += 2 {
			var x int
			kIdx := k + max
			if k == -d || (k != d && v[kIdx-1] < v[kIdx+1]) {
				x = v[kIdx+1]
			} else {
				x = v[kIdx-1] + 1
			}
			y := x - k

			for x < n && y < m && bytes.Equal(oldLines[x], newLines[y]) {
				x++
				y++
			}
			v[kIdx] = x

			if x >= n && y >= m {
				return backtrack(oldLines, newLines, trace, d, max)
			}
		}
	}
	return nil
}

func backtrack(oldLines, newLines [][]byte, trace [][]int, d, max int) []edit {
	var edits []edit
	x := len(oldLines)
	y := len(newLines)

	for depth := d; depth > 0; depth-- {
		vPrev := trace[depth-1]
		k := x - y
		kIdx := k + max

		var prevK int
		kPrevLeft := kIdx - 1
		kPrevRight := kIdx + 1
		canGoLeft := k != -depth && kPrevLeft >= 0 && kPrevLeft < len(vPrev)
		canGoRight := k != depth && kPrevRight >= 0 && kPrevRight < len(vPrev)

		if !canGoLeft || (canGoRight && vPrev[kPrevLeft] < vPrev[kPrevRight]) {
			prevK = k + 1
		} else {
			prevK = k - 1
		}

		prevKIdx := prevK + max
		prevX := vPrev[prevKIdx]
		prevY := prevX - prevK

		for x > prevX && y > prevY && x > 0 && y > 0 && bytes.Equal(oldLines[x-1], newLines[y-1]) {
			x--
			y--
			edits = append([]edit{{Type: editKeep, OldLine: x, NewLine: y}}, edits...)
		}

		if prevY < 0 {
			prevY = 0
		}

		if x > prevX {
			x--
			edits = append([]edit{{Type: editDelete, OldLine: x}}, edits...)
		} else if y > prevY {
			y--
			edits = append([]edit{{Type: editInsert, NewLine: y}}, edits...)
		}
	}

	for x > 0 && y > 0 {
		x--
		y--
		edits = append([]edit{{Type: editKeep, OldLine: x, NewLine: y}}, edits...)
	}
	for x > 0 {
		x--
		edits = append([]edit{{Type: editDelete, OldLine: x}}, edits...)
	}
	for y > 0 {
		y--
		edits = append([]edit{{Type: editInsert, NewLine: y}}, edits...)
	}

	return edits
}

// editBlock is a contiguous range of base lines replaced by newLines.
type editBlock struct {
	baseStart int
	baseEnd   int
	newLines  [][]byte
}

// region classifies a span of base lines in the three-way merge walk.
type regionKind int

const (
	regionContext regionKind = iota
	regionOurs
	regionTheirs
	regionConflict
)

type region struct {
	kind        regionKind
	oursLines   [][]byte
	theirsLines [][]byte
	baseLines   [][]byte
}

func buildBlocks(baseLines, sideLines [][]byte) []editBlock {
	edits := computeEdits(baseLines, sideLines)
	var blocks []editBlock
	i := 0
	for i < len(edits) {
		if edits[i].Type == editKeep {
			i++
			continue
		}
		block := editBlock{baseStart: -1, baseEnd: -1}
		for i < len(edits) && edits[i].Type != editKeep {
			switch edits[i].Type {
			case editDelete:
				if block.baseStart == -1 {
					block.baseStart = edits[i].OldLine
				}
				block.baseEnd = edits[i].OldLine + 1
			case editInsert:
				block.newLines = append(block.newLines, sideLines[edits[i].NewLine])
			}
			i++
		}
		if block.baseStart == -1 {
			if i < len(edits) {
				block.baseStart = edits[i].OldLine
			} else {
				block.baseStart = len(baseLines)
			}
			block.baseEnd = block.baseStart
		}
		blocks = append(blocks, block)
	}
	return blocks
}

func blocksOverlap(a, b editBlock) bool {
	return a.baseStart < b.baseEnd && b.baseStart < a.baseEnd ||
		(a.baseStart == a.baseEnd && a.baseStart >= b.baseStart && a.baseStart <= b.baseEnd) ||
		(b.baseStart == b.baseEnd && b.baseStart >= a.baseStart && b.baseStart <= a.baseEnd)
}

func blockInRange(b editBlock, overlapEnd int) bool {
	return b.baseStart < overlapEnd || (b.baseStart == b.baseEnd && b.baseStart <= overlapEnd)
}

func linesEqual(a, b [][]byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !bytes.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func copyLines(lines [][]byte, from, to int) [][]byte {
	if from >= to || from >= len(lines) {
		return nil
	}
	if to > len(lines) {
		to = len(lines)
	}
	out := make([][]byte, to-from)
	copy(out, lines[from:to])
	return out
}

// mergeWalk interleaves the ours/theirs edit blocks over the base line
// sequence, producing classified regions. This is the diff3 core: regions
// changed by exactly one side adopt that side; regions changed by both are
// emitted as a conflict unless the combined changes are textually
// identical, in which case they pass through as a clean "ours" adoption.
func mergeWalk(baseLines [][]byte, blocksOurs, blocksTheirs []editBlock) []region {
	sort.Slice(blocksOurs, func(i, j int) bool { return blocksOurs[i].baseStart < blocksOurs[j].baseStart })
	sort.Slice(blocksTheirs, func(i, j int) bool { return blocksTheirs[i].baseStart < blocksTheirs[j].baseStart })

	var regions []region
	idxOurs, idxTheirs, basePos := 0, 0, 0

	appendContext := func(from, to int) {
		if from >= to {
			return
		}
		regions = append(regions, region{kind: regionContext, baseLines: copyLines(baseLines, from, to)})
	}

	for idxOurs < len(blocksOurs) || idxTheirs < len(blocksTheirs) {
		var nextOurs, nextTheirs *editBlock
		if idxOurs < len(blocksOurs) {
			nextOurs = &blocksOurs[idxOurs]
		}
		if idxTheirs < len(blocksTheirs) {
			nextTheirs = &blocksTheirs[idxTheirs]
		}

		switch {
		case nextOurs != nil && nextTheirs != nil && blocksOverlap(*nextOurs, *nextTheirs):
			overlapStart := min(nextOurs.baseStart, nextTheirs.baseStart)
			appendContext(basePos, overlapStart)
			basePos = overlapStart

			overlapEnd := max(nextOurs.baseEnd, nextTheirs.baseEnd)

			combinedOurs := append([][]byte{}, blocksOurs[idxOurs].newLines...)
			oursStart, oursEnd := blocksOurs[idxOurs].baseStart, blocksOurs[idxOurs].baseEnd
			idxOurs++
			for idxOurs < len(blocksOurs) && blockInRange(blocksOurs[idxOurs], overlapEnd) {
				combinedOurs = append(combinedOurs, blocksOurs[idxOurs].newLines...)
				if blocksOurs[idxOurs].baseEnd > overlapEnd {
					overlapEnd = blocksOurs[idxOurs].baseEnd
				}
				oursEnd = blocksOurs[idxOurs].baseEnd
				idxOurs++
			}

			combinedTheirs := append([][]byte{}, blocksTheirs[idxTheirs].newLines...)
			theirsStart, theirsEnd := blocksTheirs[idxTheirs].baseStart, blocksTheirs[idxTheirs].baseEnd
			idxTheirs++
			for idxTheirs < len(blocksTheirs) && blockInRange(blocksTheirs[idxTheirs], overlapEnd) {
				combinedTheirs = append(combinedTheirs, blocksTheirs[idxTheirs].newLines...)
				if blocksTheirs[idxTheirs].baseEnd > overlapEnd {
					overlapEnd = blocksTheirs[idxTheirs].baseEnd
				}
				theirsEnd = blocksTheirs[idxTheirs].baseEnd
				idxTheirs++
			}

			if linesEqual(combinedOurs, combinedTheirs) && oursStart == theirsStart && oursEnd == theirsEnd {
				regions = append(regions, region{kind: regionOurs, baseLines: copyLines(baseLines, basePos, overlapEnd), oursLines: combinedOurs})
			} else {
				regions = append(regions, region{kind: regionConflict, baseLines: copyLines(baseLines, basePos, overlapEnd), oursLines: combinedOurs, theirsLines: combinedTheirs})
			}
			basePos = overlapEnd

		case nextOurs != nil && (nextTheirs == nil || nextOurs.baseStart <= nextTheirs.baseStart):
			appendContext(basePos, nextOurs.baseStart)
			basePos = nextOurs.baseStart
			regions = append(regions, region{kind: regionOurs, baseLines: copyLines(baseLines, basePos, nextOurs.baseEnd), oursLines: nextOurs.newLines})
			basePos = nextOurs.baseEnd
			idxOurs++

		default:
			appendContext(basePos, nextTheirs.baseStart)
			basePos = nextTheirs.baseStart
			regions = append(regions, region{kind: regionTheirs, baseLines: copyLines(baseLines, basePos, nextTheirs.baseEnd), theirsLines: nextTheirs.newLines})
			basePos = nextTheirs.baseEnd
			idxTheirs++
		}
	}

	appendContext(basePos, len(baseLines))
	return regions
}

// mergeBlobText performs a classic three-way line merge and serializes the
// result, writing literal diff3-style conflict markers for regions changed
// differently on both sides. The ours/theirs line bytes are written
// verbatim — if a side's content lacks a trailing newline, no newline is
// inserted before the following marker line, matching the original
// object-store's observed encoding.
func mergeBlobText(s Store, baseHash, oursHash, theirsHash objects.Hash) (objects.Hash, bool, error) {
	baseLines, err := readAllLines(s, baseHash)
	if err != nil {
		return "", false, err
	}
	oursLines, err := readAllLines(s, oursHash)
	if err != nil {
		return "", false, err
	}
	theirsLines, err := readAllLines(s, theirsHash)
	if err != nil {
		return "", false, err
	}

	blocksOurs := buildBlocks(baseLines, oursLines)
	blocksTheirs := buildBlocks(baseLines, theirsLines)
	regions := mergeWalk(baseLines, blocksOurs, blocksTheirs)

	var out bytes.Buffer
	conflict := false
	for _, r := range regions {
		switch r.kind {
		case regionContext:
			for _, l := range r.baseLines {
				out.Write(l)
			}
		case regionOurs:
			for _, l := range r.oursLines {
				out.Write(l)
			}
		case regionTheirs:
			for _, l := range r.theirsLines {
				out.Write(l)
			}
		case regionConflict:
			conflict = true
			out.WriteString("<<<<<<< ours\n")
			for _, l := range r.oursLines {
				out.Write(l)
			}
			out.WriteString("=======\n")
			for _, l := range r.theirsLines {
				out.Write(l)
			}
			out.WriteString(">>>>>>> theirs\n")
		}
	}

	hash, err := s.SaveBlob(objects.Blob{Content: out.Bytes()})
	if err != nil {
		return "", false, err
	}
	return hash, conflict, nil
}

func readAllLines(s Store, hash objects.Hash) ([][]byte, error) {
	seq, err := s.OpenLineSequence(hash)
	if err != nil {
		return nil, err
	}
	defer seq.Close()
	lines := make([][]byte, seq.Len())
	for i := range lines {
		lines[i] = append([]byte(nil), seq.Line(i)...)
	}
	return lines, nil
}
