// Package tree rebuilds parent/child hierarchies stored as adjacency lists.
//
// Rows are gathered with recursive queries (ascending to the root or
// descending into a subtree) and assembled in memory by Build.
package tree

// Row is one adjacency list entry.
type Row struct {
	ID       string  `bun:"id" json:"id"`
	ParentID *string `bun:"parent_id" json:"parentId"`
	Name     string  `bun:"name" json:"name"`
}

// Node is a Row with its children attached.
type Node struct {
	ID       string  `json:"id"`
	ParentID *string `json:"parentId"`
	Name     string  `json:"name"`
	Children []*Node `json:"children"`
}

// Build links rows into a forest. A row whose parent is nil, missing from
// rows or the row itself becomes a root. Roots and siblings keep input
// order. Duplicate ids keep their first occurrence.
func Build(rows []Row) []*Node {
	return link(rows, "")
}

// Subtree builds the tree rooted at rootID, ignoring the root's own parent.
// It reports false when rootID is not among rows.
func Subtree(rows []Row, rootID string) (*Node, bool) {
	for _, root := range link(rows, rootID) {
		if root.ID == rootID {
			return root, true
		}
	}
	return nil, false
}

// Flatten walks roots depth first and returns their rows, parents first.
func Flatten(roots []*Node) []Row {
	var out []Row
	var walk func(nodes []*Node)
	walk = func(nodes []*Node) {
		for _, n := range nodes {
			out = append(out, Row{ID: n.ID, ParentID: n.ParentID, Name: n.Name})
			walk(n.Children)
		}
	}
	walk(roots)
	return out
}

// link indexes every row first and attaches children second, so a child
// listed before its parent is still linked.
func link(rows []Row, cut string) []*Node {
	index := make(map[string]*Node, len(rows))
	ordered := make([]*Node, 0, len(rows))
	for _, row := range rows {
		if _, dup := index[row.ID]; dup {
			continue
		}
		n := &Node{ID: row.ID, ParentID: row.ParentID, Name: row.Name, Children: []*Node{}}
		index[row.ID] = n
		ordered = append(ordered, n)
	}

	roots := make([]*Node, 0)
	for _, n := range ordered {
		if n.ParentID != nil && n.ID != cut {
			if parent, ok := index[*n.ParentID]; ok && parent != n {
				parent.Children = append(parent.Children, n)
				continue
			}
		}
		roots = append(roots, n)
	}
	return roots
}
