package pegium

import (
	"fmt"
	"reflect"
)

// ParseResult is what a top-level parse returns.  A partial match is
// reported with FullMatch false and Len holding the consumed prefix.
type ParseResult struct {
	FullMatch bool
	Len       int
	Root      *RootCstNode
	Value     any
}

// ValueConverter maps a matched CST subtree to a value.  Data-type and
// terminal rules use it to produce something other than the matched
// text.
type ValueConverter func(node *CstNode) any

// Rule is a named grammar entry.  The three kinds differ in what they
// produce: a ParserRule builds a typed AST node, a DataTypeRule a
// converted scalar, a TerminalRule a contiguous token.
type Rule interface {
	Expression
	Name() string
	Parse(text string, ctx *Context) ParseResult
	value(node *CstNode) any
}

// ruleNodeParse runs the shared rule-mode protocol: append a node for
// the rule body, delegate to the body expression, and rewind on
// failure.
func ruleNodeParse(r Rule, element Expression, sv []byte, parent *CstNode, ctx *Context) int {
	size := len(parent.Children)
	node := &CstNode{Source: r}
	parent.Children = append(parent.Children, node)
	n := element.parseRule(sv, node, ctx)
	if n == parseFailure {
		parent.Children = parent.Children[:size]
		return parseFailure
	}
	node.Text = sv[:n]
	return n
}

// ruleParse runs the shared top-level protocol for rule-mode rules:
// allocate the root, skip leading hidden tokens, parse the body and
// flag whether the whole input was consumed.
func ruleParse(r Rule, text string, ctx *Context) ParseResult {
	root := &RootCstNode{FullText: []byte(text)}
	root.Text = root.FullText
	root.Source = r
	sv := root.FullText

	i := ctx.skipHidden(sv, &root.CstNode)
	n := r.parseRule(sv[i:], &root.CstNode, ctx)

	result := ParseResult{Root: root, Len: i}
	if n == parseFailure {
		return result
	}
	result.Len = i + n
	result.FullMatch = result.Len == len(sv)
	result.Value = r.value(root.Children[len(root.Children)-1])
	return result
}

// ParserRule produces a typed AST node.  It is the only rule kind whose
// body may carry assignments.
type ParserRule struct {
	name    string
	element Expression
	newNode func() AstNode
}

// Define declares a parser rule named name producing values of type T,
// which must be a pointer to a struct embedding BaseNode.
func Define[T AstNode](p *Parser, name string, body ...Expression) *ParserRule {
	var zero T
	typ := reflect.TypeOf(&zero).Elem()
	if typ.Kind() != reflect.Pointer || typ.Elem().Kind() != reflect.Struct {
		panic(fmt.Errorf("parser rule %q: %v is not a pointer to a struct", name, typ))
	}
	r := &ParserRule{
		name:    name,
		element: seq(body),
		newNode: func() AstNode {
			return reflect.New(typ.Elem()).Interface().(AstNode)
		},
	}
	p.register(name, r)
	return r
}

func (r *ParserRule) Name() string { return r.name }

func (r *ParserRule) Parse(text string, ctx *Context) ParseResult {
	return ruleParse(r, text, ctx)
}

func (r *ParserRule) parseRule(sv []byte, parent *CstNode, ctx *Context) int {
	return ruleNodeParse(r, r.element, sv, parent, ctx)
}

func (r *ParserRule) parseTerminal(sv []byte) int {
	return r.element.parseTerminal(sv)
}

// value instantiates the rule's AST node and executes the assignments
// recorded on the direct children of node.  Sequence, choice and
// repetition emit no CST nodes of their own, so every annotated child
// sits immediately below the rule's node.
func (r *ParserRule) value(node *CstNode) any {
	target := r.newNode()
	for _, child := range node.Children {
		if child.Hidden || child.Action == nil {
			continue
		}
		child.Action.execute(target, child)
	}
	return target
}

// DataTypeRule produces a scalar computed by its converter over the
// matched subtree.  The default converter concatenates the text of all
// non-hidden leaves.
type DataTypeRule struct {
	name      string
	element   Expression
	converter ValueConverter
}

func (r *DataTypeRule) Name() string { return r.name }

// Convert installs a value converter.
func (r *DataTypeRule) Convert(fn ValueConverter) *DataTypeRule {
	r.converter = fn
	return r
}

func (r *DataTypeRule) Parse(text string, ctx *Context) ParseResult {
	return ruleParse(r, text, ctx)
}

func (r *DataTypeRule) parseRule(sv []byte, parent *CstNode, ctx *Context) int {
	return ruleNodeParse(r, r.element, sv, parent, ctx)
}

func (r *DataTypeRule) parseTerminal(sv []byte) int {
	return r.element.parseTerminal(sv)
}

func (r *DataTypeRule) value(node *CstNode) any {
	if r.converter != nil {
		return r.converter(node)
	}
	return node.LeafText()
}

type terminalKind uint8

const (
	// the token maps to a regular CST node
	terminalNormal terminalKind = iota
	// the token maps to a CST node flagged hidden
	terminalHidden
	// the token maps to no CST node at all
	terminalIgnored
)

// TerminalRule matches a contiguous token.  Its body parses in terminal
// mode: no hidden skipping between sub-expressions.
type TerminalRule struct {
	name      string
	element   Expression
	kind      terminalKind
	converter ValueConverter
}

func (r *TerminalRule) Name() string { return r.name }

// Hide flags the terminal as hidden: matches are attached to the CST
// but ignored by AST construction.
func (r *TerminalRule) Hide() *TerminalRule {
	r.kind = terminalHidden
	return r
}

// Ignore flags the terminal as ignored: matches are discarded entirely.
func (r *TerminalRule) Ignore() *TerminalRule {
	r.kind = terminalIgnored
	return r
}

// Hidden reports whether the terminal is hidden or ignored.
func (r *TerminalRule) Hidden() bool { return r.kind != terminalNormal }

// Ignored reports whether the terminal is ignored.
func (r *TerminalRule) Ignored() bool { return r.kind == terminalIgnored }

// Convert installs a value converter.  The default yields the matched
// text as a string.
func (r *TerminalRule) Convert(fn ValueConverter) *TerminalRule {
	r.converter = fn
	return r
}

// Const makes the terminal yield v regardless of the matched text, e.g.
// `true` for a "true" keyword token.
func (r *TerminalRule) Const(v any) *TerminalRule {
	r.converter = func(*CstNode) any { return v }
	return r
}

func (r *TerminalRule) Parse(text string, ctx *Context) ParseResult {
	root := &RootCstNode{FullText: []byte(text)}
	root.Text = root.FullText
	root.Source = r
	root.Leaf = true
	sv := root.FullText

	n := r.parseTerminal(sv)
	result := ParseResult{Root: root}
	if n == parseFailure {
		return result
	}
	root.Text = sv[:n]
	result.Len = n
	result.FullMatch = n == len(sv)
	result.Value = r.value(&root.CstNode)
	return result
}

// parseRule is the protocol for a terminal called from another rule's
// body: match in terminal mode, emit a single leaf child unless the
// terminal is ignored, then skip trailing hidden tokens in the caller's
// parent.
func (r *TerminalRule) parseRule(sv []byte, parent *CstNode, ctx *Context) int {
	n := r.parseTerminal(sv)
	if n == parseFailure {
		return parseFailure
	}
	if r.kind != terminalIgnored {
		parent.Children = append(parent.Children, &CstNode{
			Text:   sv[:n],
			Source: r,
			Leaf:   true,
			Hidden: r.kind == terminalHidden,
		})
	}
	return n + ctx.skipHidden(sv[n:], parent)
}

func (r *TerminalRule) parseTerminal(sv []byte) int {
	return r.element.parseTerminal(sv)
}

func (r *TerminalRule) value(node *CstNode) any {
	if r.converter != nil {
		return r.converter(node)
	}
	return string(node.Text)
}
