package services

import (
	"github.com/google/uuid"
	"quick-jot/quickjot/models"
)

type FolderNode struct {
	ID        uuid.UUID     `json:"id"`
	Name      string        `json:"name"`
	IsDefault bool          `json:"is_default"`
	Children  []*FolderNode `json:"children"`
}

// BuildFolderTree nests a flat, owner-scoped folder list. Children keep input
// order. A folder whose parent is missing from the input, or that names itself
// as parent, becomes a root. Folders caught in a parent cycle are promoted to
// roots in input order, detached from the parent that closed the cycle. When
// an id repeats, the last record wins.
func BuildFolderTree(folders []models.Folder) []*FolderNode {
	records := make(map[uuid.UUID]models.Folder, len(folders))
	nodes := make(map[uuid.UUID]*FolderNode, len(folders))
	for _, f := range folders {
		records[f.ID] = f
		nodes[f.ID] = &FolderNode{
			ID:        f.ID,
			Name:      f.Name,
			IsDefault: f.IsDefault,
			Children:  []*FolderNode{},
		}
	}

	roots := []*FolderNode{}
	attachedTo := make(map[uuid.UUID]*FolderNode, len(nodes))
	placed := make(map[uuid.UUID]bool, len(nodes))
	for _, f := range folders {
		if placed[f.ID] {
			continue
		}
		placed[f.ID] = true
		f = records[f.ID]
		node := nodes[f.ID]

		if f.ParentID != nil && *f.ParentID != f.ID {
			if parent, ok := nodes[*f.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				attachedTo[f.ID] = parent
				continue
			}
		}
		roots = append(roots, node)
	}

	reached := make(map[*FolderNode]bool, len(nodes))
	var mark func(n *FolderNode)
	mark = func(n *FolderNode) {
		if reached[n] {
			return
		}
		reached[n] = true
		for _, child := range n.Children {
			mark(child)
		}
	}
	for _, root := range roots {
		mark(root)
	}

	for _, f := range folders {
		node := nodes[f.ID]
		if reached[node] {
			continue
		}
		parent := attachedTo[f.ID]
		parent.Children = removeNode(parent.Children, node)
		roots = append(roots, node)
		mark(node)
	}
	return roots
}

func removeNode(nodes []*FolderNode, target *FolderNode) []*FolderNode {
	kept := nodes[:0]
	for _, n := range nodes {
		if n != target {
			kept = append(kept, n)
		}
	}
	return kept
}
