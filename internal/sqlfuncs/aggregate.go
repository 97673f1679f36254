package sqlfuncs

import (
	"strings"

	"github.com/nsqlite/litebind/sqlitec"
)

// groupConcatDistinct keeps the first occurrence order of each value.
type groupConcatDistinct struct {
	seen   map[string]struct{}
	values []string
}

func (g *groupConcatDistinct) Step(args []sqlitec.Value) error {
	if args[0].IsNull() {
		return nil
	}
	v := args[0].Text()
	if _, ok := g.seen[v]; ok {
		return nil
	}
	g.seen[v] = struct{}{}
	g.values = append(g.values, v)
	return nil
}

func (g *groupConcatDistinct) Final() (any, error) {
	if len(g.values) == 0 {
		return nil, nil
	}
	return strings.Join(g.values, ","), nil
}
