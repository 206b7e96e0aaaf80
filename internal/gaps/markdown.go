package gaps

import (
	"fmt"
	"strings"
)

// RenderMarkdown produces the missing_prs report: one table per
// category, columns PR | Title, PR numbers linked to the hosting repo.
// Ordering follows the report exactly so regenerated files stay
// diffable.
func RenderMarkdown(rep *Report, orgRepo string) string {
	var b strings.Builder
	b.WriteString("# Missing PR analyses\n\n")
	fmt.Fprintf(&b, "%d compiler PRs without an analysis file (%d covered).\n", rep.Missing(), rep.Covered)

	for _, cat := range rep.Categories {
		fmt.Fprintf(&b, "\n## %s\n\n", cat.Name)
		b.WriteString("| PR | Title |\n")
		b.WriteString("|----|-------|\n")
		for _, e := range cat.Entries {
			fmt.Fprintf(&b, "| [#%d](https://github.com/%s/pull/%d) | %s |\n",
				e.Number, orgRepo, e.Number, escapeCell(e.Title))
		}
	}
	return b.String()
}

// escapeCell keeps literal pipes in titles from breaking table cells.
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
