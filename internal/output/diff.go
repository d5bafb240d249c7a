package output

import (
	"fmt"
	"strings"
)

// ModifiedItem represents a modified chunk for rendering.
type ModifiedItem struct {
	Name string
	Diff string
}

// RenderDiff renders added, removed and modified chunk names with any
// per-chunk diff text indented beneath its name.
func RenderDiff(added, removed []string, modified []ModifiedItem) string {
	if len(added) == 0 && len(removed) == 0 && len(modified) == 0 {
		return "No changes detected."
	}

	var sb strings.Builder

	if len(added) > 0 {
		sb.WriteString(styleAdded.Render("Added:"))
		sb.WriteString("\n")
		for _, name := range added {
			sb.WriteString("  + ")
			sb.WriteString(styleAdded.Render(name))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	if len(removed) > 0 {
		sb.WriteString(styleRemoved.Render("Removed:"))
		sb.WriteString("\n")
		for _, name := range removed {
			sb.WriteString("  - ")
			sb.WriteString(styleRemoved.Render(name))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	if len(modified) > 0 {
		sb.WriteString(styleModified.Render("Modified:"))
		sb.WriteString("\n")
		for _, mod := range modified {
			sb.WriteString("  ~ ")
			sb.WriteString(styleModified.Render(mod.Name))
			sb.WriteString("\n")
			sb.WriteString(IndentDiff(mod.Diff, "    "))
			sb.WriteString("\n")
		}
	}

	sb.WriteString("Summary: ")
	sb.WriteString(diffSummary(len(added), len(removed), len(modified)))
	sb.WriteString("\n")

	return sb.String()
}

// IndentDiff indents every non-empty line of diff.
func IndentDiff(diff, indent string) string {
	if diff == "" {
		return ""
	}

	var sb strings.Builder
	for _, line := range strings.Split(diff, "\n") {
		if line != "" {
			sb.WriteString(indent)
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func diffSummary(added, removed, modified int) string {
	parts := make([]string, 0, 3)
	if added > 0 {
		parts = append(parts, fmt.Sprintf("%d added", added))
	}
	if removed > 0 {
		parts = append(parts, fmt.Sprintf("%d removed", removed))
	}
	if modified > 0 {
		parts = append(parts, fmt.Sprintf("%d modified", modified))
	}
	return strings.Join(parts, ", ")
}
