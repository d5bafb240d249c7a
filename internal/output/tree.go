package output

import "strings"

const (
	treeEdge  = "├── "
	treeLast  = "└── "
	treeVert  = "│   "
	treeSpace = "    "

	// descriptionColumn is where node descriptions are aligned.
	descriptionColumn = 40
)

// TreeNode represents a node in a rendered tree.
type TreeNode struct {
	Name        string
	Description string
	Children    []*TreeNode
}

// RenderTree renders root and its children with box-drawing connectors.
// Children keep their given order.
func RenderTree(root *TreeNode) string {
	if root == nil {
		return ""
	}
	var sb strings.Builder
	renderNode(&sb, root, "", true, true)
	return sb.String()
}

func renderNode(sb *strings.Builder, node *TreeNode, prefix string, isRoot, isLast bool) {
	var line string
	if isRoot {
		line = StyleSummary.Render(node.Name)
	} else {
		connector := treeEdge
		if isLast {
			connector = treeLast
		}
		line = StyleDim.Render(prefix+connector) + StyleNoun.Render(node.Name)
	}

	if node.Description != "" {
		width := len(prefix) + len(treeEdge) + len(node.Name)
		if isRoot {
			width = len(node.Name)
		}
		padding := descriptionColumn - width
		if padding < 2 {
			padding = 2
		}
		line += strings.Repeat(" ", padding) + StyleDim.Render(node.Description)
	}

	sb.WriteString(line)
	sb.WriteString("\n")

	for i, child := range node.Children {
		childPrefix := ""
		if !isRoot {
			if isLast {
				childPrefix = prefix + treeSpace
			} else {
				childPrefix = prefix + treeVert
			}
		}
		renderNode(sb, child, childPrefix, false, i == len(node.Children)-1)
	}
}
