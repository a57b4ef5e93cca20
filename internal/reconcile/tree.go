package reconcile

import (
	"errors"
	"os"

	billy "github.com/go-git/go-billy/v5"
)

// Node is one entry of a file-tree snapshot. Paths are relative to the
// snapshot root.
type Node struct {
	Path     string
	Dir      bool
	Children []*Node
}

// Snapshot lists root recursively. A missing root yields an empty
// directory node.
func Snapshot(fs billy.Filesystem, root string) (*Node, error) {
	n := &Node{Path: root, Dir: true}
	entries, err := fs.ReadDir(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return n, nil
		}
		return nil, err
	}
	for _, e := range entries {
		child := &Node{Path: fs.Join(root, e.Name()), Dir: e.IsDir()}
		if child.Dir {
			sub, err := Snapshot(fs, child.Path)
			if err != nil {
				return nil, err
			}
			child.Children = sub.Children
		}
		n.Children = append(n.Children, child)
	}
	return n, nil
}

// Leaves flattens the tree below n into the paths of its files and empty
// directories, in depth-first order. n itself is never included.
func (n *Node) Leaves() []string {
	var out []string
	for _, c := range n.Children {
		if c.Dir && len(c.Children) > 0 {
			out = append(out, c.Leaves()...)
			continue
		}
		out = append(out, c.Path)
	}
	return out
}
