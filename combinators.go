package pegium

import (
	"fmt"
	"math"
)

// group matches its elements sequentially.
type group struct {
	elements []Expression
}

// Seq matches every element in order.  Nested sequences are flattened.
func Seq(elements ...Expression) Expression {
	if len(elements) < 2 {
		panic(fmt.Errorf("a sequence needs at least 2 elements"))
	}
	out := make([]Expression, 0, len(elements))
	for _, e := range elements {
		if g, ok := e.(group); ok {
			out = append(out, g.elements...)
			continue
		}
		out = append(out, e)
	}
	return group{elements: out}
}

// seq is the variadic rule-body helper: a single element stands alone,
// two or more become a sequence.
func seq(elements []Expression) Expression {
	if len(elements) == 0 {
		panic(fmt.Errorf("a rule needs a body"))
	}
	if len(elements) == 1 {
		return elements[0]
	}
	return Seq(elements...)
}

func (g group) parseRule(sv []byte, parent *CstNode, ctx *Context) int {
	size := len(parent.Children)
	i := 0
	for _, e := range g.elements {
		n := e.parseRule(sv[i:], parent, ctx)
		if n == parseFailure {
			parent.Children = parent.Children[:size]
			return parseFailure
		}
		i += n
	}
	return i
}

func (g group) parseTerminal(sv []byte) int {
	i := 0
	for _, e := range g.elements {
		n := e.parseTerminal(sv[i:])
		if n == parseFailure {
			return parseFailure
		}
		i += n
	}
	return i
}

// choice tries its alternatives left to right; the first success wins
// and there is no backtracking into a committed alternative.
type choice struct {
	elements []Expression
}

// Choice matches the first alternative that succeeds.  Nested choices
// are flattened.
func Choice(elements ...Expression) Expression {
	if len(elements) < 2 {
		panic(fmt.Errorf("an ordered choice needs at least 2 elements"))
	}
	out := make([]Expression, 0, len(elements))
	for _, e := range elements {
		if c, ok := e.(choice); ok {
			out = append(out, c.elements...)
			continue
		}
		out = append(out, e)
	}
	return choice{elements: out}
}

func (c choice) parseRule(sv []byte, parent *CstNode, ctx *Context) int {
	size := len(parent.Children)
	for _, e := range c.elements {
		if n := e.parseRule(sv, parent, ctx); n != parseFailure {
			return n
		}
		parent.Children = parent.Children[:size]
	}
	return parseFailure
}

func (c choice) parseTerminal(sv []byte) int {
	for _, e := range c.elements {
		if n := e.parseTerminal(sv); n != parseFailure {
			return n
		}
	}
	return parseFailure
}

// unordered matches every member exactly once, in any order.  Members
// are scanned left to right, the first not-yet-matched member that
// succeeds at the current position is taken, and the scan restarts.
type unordered struct {
	elements []Expression
}

// Unordered matches all elements exactly once each, in any order.
func Unordered(elements ...Expression) Expression {
	if len(elements) < 2 {
		panic(fmt.Errorf("an unordered group needs at least 2 elements"))
	}
	out := make([]Expression, 0, len(elements))
	for _, e := range elements {
		if u, ok := e.(unordered); ok {
			out = append(out, u.elements...)
			continue
		}
		out = append(out, e)
	}
	return unordered{elements: out}
}

func (u unordered) parseRule(sv []byte, parent *CstNode, ctx *Context) int {
	size := len(parent.Children)
	done := make([]bool, len(u.elements))
	i, matched := 0, 0
	for matched < len(u.elements) {
		progressed := false
		for k, e := range u.elements {
			if done[k] {
				continue
			}
			n := e.parseRule(sv[i:], parent, ctx)
			if n == parseFailure {
				continue
			}
			if n == 0 {
				panic(fmt.Errorf("an unordered group member matched the empty string"))
			}
			done[k] = true
			matched++
			i += n
			progressed = true
			break
		}
		if !progressed {
			break
		}
	}
	if matched < len(u.elements) {
		parent.Children = parent.Children[:size]
		return parseFailure
	}
	return i
}

func (u unordered) parseTerminal(sv []byte) int {
	done := make([]bool, len(u.elements))
	i, matched := 0, 0
	for matched < len(u.elements) {
		progressed := false
		for k, e := range u.elements {
			if done[k] {
				continue
			}
			n := e.parseTerminal(sv[i:])
			if n == parseFailure {
				continue
			}
			if n == 0 {
				panic(fmt.Errorf("an unordered group member matched the empty string"))
			}
			done[k] = true
			matched++
			i += n
			progressed = true
			break
		}
		if !progressed {
			break
		}
	}
	if matched < len(u.elements) {
		return parseFailure
	}
	return i
}

// unbounded is the max of a repetition without an upper limit.
const unbounded = math.MaxInt

// repetition matches its element between min and max times.  The
// mandatory prefix must match; the optional tail stops on the first
// failure or on an iteration that consumed no bytes.
type repetition struct {
	min, max int
	element  Expression
}

// Repeat matches element at least min and at most max times.
func Repeat(min, max int, element Expression) Expression {
	if min < 0 || max < min {
		panic(fmt.Errorf("invalid repetition bounds [%d, %d]", min, max))
	}
	return repetition{min: min, max: max, element: element}
}

// Optional matches element zero or one time.
func Optional(element Expression) Expression { return Repeat(0, 1, element) }

// ZeroOrMore matches element any number of times.
func ZeroOrMore(element Expression) Expression { return Repeat(0, unbounded, element) }

// OneOrMore matches element one or more times.
func OneOrMore(element Expression) Expression { return Repeat(1, unbounded, element) }

func (r repetition) parseRule(sv []byte, parent *CstNode, ctx *Context) int {
	size := len(parent.Children)
	i, count := 0, 0
	for count < r.min {
		n := r.element.parseRule(sv[i:], parent, ctx)
		if n == parseFailure {
			parent.Children = parent.Children[:size]
			return parseFailure
		}
		i += n
		count++
	}
	for count < r.max {
		size = len(parent.Children)
		n := r.element.parseRule(sv[i:], parent, ctx)
		if n == parseFailure {
			parent.Children = parent.Children[:size]
			break
		}
		if n == 0 {
			break
		}
		i += n
		count++
	}
	return i
}

func (r repetition) parseTerminal(sv []byte) int {
	i, count := 0, 0
	for count < r.min {
		n := r.element.parseTerminal(sv[i:])
		if n == parseFailure {
			return parseFailure
		}
		i += n
		count++
	}
	for count < r.max {
		n := r.element.parseTerminal(sv[i:])
		if n == parseFailure || n == 0 {
			break
		}
		i += n
		count++
	}
	return i
}

// OneOrMoreSep matches `element (sep element)*`.
func OneOrMoreSep(sep, element Expression) Expression {
	return Seq(element, ZeroOrMore(Seq(sep, element)))
}

// ZeroOrMoreSep matches `(element (sep element)*)?`.
func ZeroOrMoreSep(sep, element Expression) Expression {
	return Optional(OneOrMoreSep(sep, element))
}

// Until matches from, then everything up to and including to, e.g.
// `Until(Lit("/*"), Lit("*/"))` for a block comment.
func Until(from, to Expression) Expression {
	return Seq(from, ZeroOrMore(Seq(Not(to), Any)), to)
}

// anyCharacter consumes a single UTF-8 codepoint, as the `.` of a
// regular expression.
type anyCharacter struct{}

func (anyCharacter) parseTerminal(sv []byte) int { return codepointLen(sv) }

func (a anyCharacter) parseRule(sv []byte, parent *CstNode, ctx *Context) int {
	i := codepointLen(sv)
	if i == parseFailure {
		return parseFailure
	}

	parent.Children = append(parent.Children, &CstNode{
		Text:   sv[:i],
		Source: a,
		Leaf:   true,
	})
	return i + ctx.skipHidden(sv[i:], parent)
}

var (
	// Any matches one codepoint, as `.`.
	Any Expression = anyCharacter{}
	// EOF succeeds only at the end of the input.
	EOF = Not(Any)
	// EOL matches a line break.
	EOL = Choice(Lit("\r\n"), Lit("\n"), Lit("\r"))
)
