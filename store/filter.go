package store

import (
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/pkg/errors"
)

// nodeFilterEnv declares the variables a node filter expression may use.
// The environment is immutable, so it is built once and shared.
var nodeFilterEnv = sync.OnceValues(func() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("type", cel.StringType),
		cel.Variable("role", cel.StringType),
		cel.Variable("title", cel.StringType),
		cel.Variable("content", cel.StringType),
		cel.Variable("pinned", cel.BoolType),
		cel.Variable("importance", cel.IntType),
		cel.Variable("tags", cel.ListType(cel.StringType)),
		cel.Variable("loading", cel.BoolType),
	)
})

// NodeFilter is a compiled CEL expression over node fields, e.g.
// `type == "topic" && importance >= 4` or `"golang" in tags`.
type NodeFilter struct {
	program cel.Program
}

// CompileNodeFilter parses and type-checks a filter expression. The
// expression must evaluate to a boolean.
func CompileNodeFilter(expression string) (*NodeFilter, error) {
	env, err := nodeFilterEnv()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build filter environment")
	}
	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, errors.Wrap(issues.Err(), "invalid filter")
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, errors.Errorf("filter must evaluate to a boolean, got %s", ast.OutputType())
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build filter program")
	}
	return &NodeFilter{program: program}, nil
}

// Match evaluates the filter against one node. Importance is the effective
// value, so unannotated nodes match `importance == 3`.
func (f *NodeFilter) Match(node *Node) (bool, error) {
	tags := node.TagList()
	if tags == nil {
		tags = []string{}
	}
	out, _, err := f.program.Eval(map[string]any{
		"type":       string(node.Type),
		"role":       string(node.Role),
		"title":      node.Title,
		"content":    node.Content,
		"pinned":     node.Pinned(),
		"importance": node.EffectiveImportance(),
		"tags":       tags,
		"loading":    node.IsLoading,
	})
	if err != nil {
		return false, errors.Wrap(err, "failed to evaluate filter")
	}
	matched, ok := out.Value().(bool)
	if !ok {
		return false, errors.Errorf("filter returned %T, want bool", out.Value())
	}
	return matched, nil
}

// FilterNodes returns copies of the nodes matching the filter, in insertion
// order. A nil filter matches everything.
func (g *BoardGraph) FilterNodes(filter *NodeFilter) ([]*Node, error) {
	nodes := g.ListNodes()
	if filter == nil {
		return nodes, nil
	}
	out := make([]*Node, 0, len(nodes))
	for _, node := range nodes {
		matched, err := filter.Match(node)
		if err != nil {
			return nil, err
		}
		if matched {
			out = append(out, node)
		}
	}
	return out, nil
}
