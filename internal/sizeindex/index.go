// Package sizeindex groups walked files by exact byte size.
//
// Files of different sizes cannot have equal content, so the index is the
// cheap first filter of a scan: it costs one map insert per file and lets the
// fingerprint stage skip every file whose size is unique. Groups of size 1
// are pruned before hashing; Candidates is the only view the grouper sees.
package sizeindex

import "dupfind/internal/walker"

// Group is the set of paths sharing one size, in insertion order.
type Group struct {
	Size  int64
	Paths []string
}

// Bytes is the total size of every file in the group.
func (g Group) Bytes() int64 {
	return g.Size * int64(len(g.Paths))
}

// Index maps size to paths. Sizes are remembered in order of first
// appearance so iteration is deterministic. The zero value is not usable;
// call New.
type Index struct {
	order  []int64
	groups map[int64][]string
	files  int
}

func New() *Index {
	return &Index{groups: make(map[int64][]string)}
}

// Build indexes records in order.
func Build(records []walker.FileRecord) *Index {
	idx := New()
	for _, rec := range records {
		idx.Add(rec)
	}
	return idx
}

// Add appends rec.Path to the group for rec.Size.
func (idx *Index) Add(rec walker.FileRecord) {
	paths, ok := idx.groups[rec.Size]
	if !ok {
		idx.order = append(idx.order, rec.Size)
	}
	idx.groups[rec.Size] = append(paths, rec.Path)
	idx.files++
}

// Len returns the number of indexed files.
func (idx *Index) Len() int {
	return idx.files
}

// Groups returns every size group, including singletons.
func (idx *Index) Groups() []Group {
	out := make([]Group, 0, len(idx.order))
	for _, size := range idx.order {
		out = append(out, idx.group(size))
	}
	return out
}

// Candidates returns only groups with two or more members.
func (idx *Index) Candidates() []Group {
	var out []Group
	for _, size := range idx.order {
		if len(idx.groups[size]) < 2 {
			continue
		}
		out = append(out, idx.group(size))
	}
	return out
}

func (idx *Index) group(size int64) Group {
	paths := idx.groups[size]
	return Group{Size: size, Paths: append([]string(nil), paths...)}
}
