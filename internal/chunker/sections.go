package chunker

import "github.com/leduardoaraujo/jsonexplorer/internal/doctree"

// SectionOwners returns, for every chunk, the index of the heading chunk
// whose section contains it, or -1 for chunks outside any section. A
// heading's owner is the closest preceding heading of a lower level.
func SectionOwners(chunks []doctree.Chunk) []int {
	owners := make([]int, len(chunks))
	var open []int // indices of open headings, levels strictly increasing
	for i, c := range chunks {
		if c.Metadata.Type == doctree.ChunkHeading {
			for len(open) > 0 && chunks[open[len(open)-1]].Metadata.Level >= c.Metadata.Level {
				open = open[:len(open)-1]
			}
		}
		owners[i] = -1
		if len(open) > 0 {
			owners[i] = open[len(open)-1]
		}
		if c.Metadata.Type == doctree.ChunkHeading {
			open = append(open, i)
		}
	}
	return owners
}
