// Package pegium is a parsing expression grammar (PEG) combinator
// library.  A grammar is assembled in plain Go by composing matchers
// into named rules; parsing an input yields a concrete syntax tree of
// spans over the input and, through assignments, a typed AST.
package pegium

import "fmt"

// Parser owns the rule registry.  Grammars are immutable once built
// and can be shared by any number of concurrent Parse calls: each call
// gets its own Context and CST.
type Parser struct {
	slots map[string]*ruleSlot
	order []string
}

// ruleSlot is the late-binding cell behind a rule name.  Calls capture
// the slot, not the rule, so a rule can be referenced before its
// definition is registered.
type ruleSlot struct {
	name string
	rule Rule
}

func NewParser() *Parser {
	return &Parser{slots: map[string]*ruleSlot{}}
}

func (p *Parser) slot(name string) *ruleSlot {
	if s, ok := p.slots[name]; ok {
		return s
	}
	s := &ruleSlot{name: name}
	p.slots[name] = s
	return s
}

func (p *Parser) register(name string, r Rule) {
	s := p.slot(name)
	if s.rule != nil {
		panic(fmt.Errorf("rule %q is already defined", name))
	}
	s.rule = r
	p.order = append(p.order, name)
}

// Rule declares a data-type rule.  Its value defaults to the
// concatenated text of all non-hidden leaves; see DataTypeRule.Convert.
func (p *Parser) Rule(name string, body ...Expression) *DataTypeRule {
	element := seq(body)
	if containsAssignment(element) {
		panic(fmt.Errorf("rule %q: only parser rules may carry assignments", name))
	}
	r := &DataTypeRule{name: name, element: element}
	p.register(name, r)
	return r
}

// Terminal declares a terminal rule.  Its body matches in terminal
// mode; visibility is set with Hide or Ignore.
func (p *Parser) Terminal(name string, body ...Expression) *TerminalRule {
	element := seq(body)
	if containsAssignment(element) {
		panic(fmt.Errorf("terminal %q: an assignment cannot appear inside a terminal", name))
	}
	r := &TerminalRule{name: name, element: element}
	p.register(name, r)
	return r
}

// Call returns a late-bound reference to the named rule.  The name does
// not have to be defined yet, which is what makes mutual recursion
// work.
func (p *Parser) Call(name string) Expression {
	return &RuleCall{slot: p.slot(name)}
}

// Rules returns the known rule names in registration order.
func (p *Parser) Rules() []string {
	names := make([]string, len(p.order))
	copy(names, p.order)
	return names
}

// Parse looks up the named rule and parses text with a fresh Context.
// Parsing through an unregistered name is a grammar bug and panics.
func (p *Parser) Parse(name, text string) ParseResult {
	s, ok := p.slots[name]
	if !ok || s.rule == nil {
		panic(fmt.Errorf("parse of undefined rule %q", name))
	}
	return s.rule.Parse(text, p.NewContext())
}

// NewContext builds the per-parse context holding the hidden and
// ignored terminals in registration order.
func (p *Parser) NewContext() *Context {
	var hidden []*TerminalRule
	for _, name := range p.order {
		if t, ok := p.slots[name].rule.(*TerminalRule); ok && t.Hidden() {
			hidden = append(hidden, t)
		}
	}
	return &Context{hidden: hidden}
}

// RuleCall resolves to the registry entry behind its name at parse
// time and behaves as that rule's expression.
type RuleCall struct {
	slot *ruleSlot
}

func (c *RuleCall) resolve() Rule {
	if c.slot.rule == nil {
		panic(fmt.Errorf("call of undefined rule %q", c.slot.name))
	}
	return c.slot.rule
}

func (c *RuleCall) parseRule(sv []byte, parent *CstNode, ctx *Context) int {
	return c.resolve().parseRule(sv, parent, ctx)
}

func (c *RuleCall) parseTerminal(sv []byte) int {
	return c.resolve().parseTerminal(sv)
}

// Context is the shared per-parse state: the ordered list of terminals
// to skip between rule-mode tokens.
type Context struct {
	hidden []*TerminalRule
}

// skipHidden repeatedly tries every hidden terminal at the current
// position, attaching a hidden leaf for each match unless the terminal
// is ignored.  It stops on a full pass without a match.  A hidden
// terminal must consume at least one byte.
func (c *Context) skipHidden(sv []byte, parent *CstNode) int {
	i := 0
	for {
		matched := false
		for _, t := range c.hidden {
			n := t.parseTerminal(sv[i:])
			if n == parseFailure {
				continue
			}
			if n == 0 {
				panic(fmt.Errorf("hidden terminal %q matched the empty string", t.Name()))
			}
			if !t.Ignored() {
				parent.Children = append(parent.Children, &CstNode{
					Text:   sv[i : i+n],
					Source: t,
					Leaf:   true,
					Hidden: true,
				})
			}
			i += n
			matched = true
		}
		if !matched {
			break
		}
	}
	return i
}
