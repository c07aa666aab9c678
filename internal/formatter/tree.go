package formatter

import (
	"github.com/xlab/treeprint"

	"github.com/oakwood-commons/smartsearch/pkg/search"
)

// FormatAsTree renders clauses as a tree whose branches are bracket groups.
// Unbalanced closing brackets stay at the level they appear on.
func FormatAsTree(matchers []search.Matcher, function string, cfg search.Config) string {
	root := treeprint.New()
	if function != "" {
		root.SetValue(function)
	} else {
		root.SetValue("search")
	}

	stack := []treeprint.Tree{root}
	for i, m := range matchers {
		top := stack[len(stack)-1]
		label := search.Display(m, search.IsFirst(matchers, i), cfg)
		switch m.Comparison {
		case search.OpenBracket:
			stack = append(stack, top.AddBranch(label))
		case search.CloseBracket:
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			} else {
				top.AddNode(label)
			}
		default:
			top.AddNode(label)
		}
	}
	return root.String()
}
