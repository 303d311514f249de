package pegium

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisitPrune(t *testing.T) {
	p := newTestGrammar()
	result := p.Parse("TestAst", "test a { test b }")
	require.True(t, result.FullMatch)

	// pruning at the nested rule node hides its subtree
	var seen []string
	result.Root.Visit(func(n *CstNode) bool {
		if r, ok := n.Source.(Rule); ok && r.Name() == "TestAst" && string(n.Text) != string(result.Root.FullText) {
			seen = append(seen, "pruned:"+string(n.Text))
			return false
		}
		if n.Leaf {
			seen = append(seen, string(n.Text))
		}
		return true
	})
	require.NotEmpty(t, seen)
	assert.NotContains(t, seen, "b")
}

func TestLeafTextDropsHidden(t *testing.T) {
	p := NewParser()
	p.Terminal("WS", OneOrMore(S)).Hide()
	p.Rule("R", Lit("a"), Lit("b"), Lit("c"))

	result := p.Parse("R", " a b c ")
	require.True(t, result.FullMatch)
	assert.Equal(t, "abc", result.Root.LeafText())
}

// The CST is lossless: with hidden tokens attached, the leaves spell
// the input back out.
func TestCstIsLossless(t *testing.T) {
	p := NewParser()
	p.Terminal("WS", OneOrMore(S)).Hide()
	p.Terminal("ID", Chars("a-zA-Z_"), ZeroOrMore(W))
	p.Rule("R", OneOrMoreSep(Lit("."), p.Call("ID")))

	input := "  foo . bar.baz  "
	result := p.Parse("R", input)
	require.True(t, result.FullMatch)

	var s strings.Builder
	result.Root.Visit(func(n *CstNode) bool {
		if n.Leaf {
			s.Write(n.Text)
		}
		return true
	})
	assert.Equal(t, input, s.String())
}

func TestRewindLeavesNoPartialChildren(t *testing.T) {
	p := NewParser()
	p.Terminal("WS", OneOrMore(S)).Ignore()
	p.Rule("R", Choice(
		Seq(Lit("A"), Lit("B")),
		Seq(Lit("A"), Lit("C")),
	))

	result := p.Parse("R", "A C")
	require.True(t, result.FullMatch)

	// the failed "A" "B" attempt left nothing behind
	body := result.Root.Children[0]
	require.Len(t, body.Children, 2)
	assert.Equal(t, "A", string(body.Children[0].Text))
	assert.Equal(t, "C", string(body.Children[1].Text))
}

func TestNoHiddenNodesInsideTerminals(t *testing.T) {
	p := NewParser()
	p.Terminal("WS", OneOrMore(S)).Hide()
	p.Terminal("STR", Lit(`"`), ZeroOrMore(Chars(`"`).Negate()), Lit(`"`))
	p.Rule("R", p.Call("STR"))

	result := p.Parse("R", ` "a b" `)
	require.True(t, result.FullMatch)

	result.Root.Visit(func(n *CstNode) bool {
		if src, ok := n.Source.(*TerminalRule); ok && src.Name() == "STR" {
			assert.Empty(t, n.Children)
			assert.True(t, n.Leaf)
		}
		return true
	})
}

func TestSpanContainment(t *testing.T) {
	p := newTestGrammar()
	input := "test a { test b }"
	result := p.Parse("TestAst", input)
	require.True(t, result.FullMatch)

	full := string(result.Root.FullText)
	result.Root.Visit(func(n *CstNode) bool {
		assert.Contains(t, full, string(n.Text))
		return true
	})
}

func TestGrammarSourceIsSet(t *testing.T) {
	p := newTestGrammar()
	result := p.Parse("TestAst", "test a")
	require.True(t, result.FullMatch)

	result.Root.Visit(func(n *CstNode) bool {
		if n != &result.Root.CstNode {
			assert.NotNil(t, n.Source)
		}
		return true
	})
}

func TestPretty(t *testing.T) {
	p := NewParser()
	p.Terminal("WS", OneOrMore(S)).Ignore()
	p.Terminal("ID", Chars("a-zA-Z_"), ZeroOrMore(W))
	p.Rule("R", Lit("let"), p.Call("ID"))

	result := p.Parse("R", "let x")
	require.True(t, result.FullMatch)

	expected := `R
└── R
    ├── "let"
    └── ID["x"]`
	assert.Equal(t, expected, result.Root.Pretty())
}
