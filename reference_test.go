package pegium

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type symbol struct {
	BaseNode
	Name string
}

type symbolUse struct {
	BaseNode
	Target Reference[*symbol]
}

func TestReferenceRecordsText(t *testing.T) {
	p := NewParser()
	p.Terminal("WS", OneOrMore(S)).Ignore()
	p.Terminal("ID", Chars("a-zA-Z_"), ZeroOrMore(W))
	Define[*symbolUse](p, "Use", Lit("use"), Assign("Target", p.Call("ID")))

	result := p.Parse("Use", "use foo")
	require.True(t, result.FullMatch)

	use := result.Value.(*symbolUse)
	assert.Equal(t, "foo", use.Target.Text())

	// resolution is deferred until a resolver is installed
	_, ok := use.Target.Get()
	assert.False(t, ok)

	target := &symbol{Name: "foo"}
	use.Target.SetResolver(func(text string) (*symbol, bool) {
		return target, text == target.Name
	})
	resolved, ok := use.Target.Get()
	require.True(t, ok)
	assert.Same(t, target, resolved)
}

func TestReferenceResolvesAtMostOnce(t *testing.T) {
	var calls atomic.Int32
	target := &symbol{Name: "x"}

	ref := &Reference[*symbol]{}
	ref.SetText("x")
	ref.SetResolver(func(string) (*symbol, bool) {
		calls.Add(1)
		return target, true
	})

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, ok := ref.Get()
			assert.True(t, ok)
			assert.Same(t, target, got)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestReferenceRetriesAfterFailure(t *testing.T) {
	var calls int
	target := &symbol{Name: "y"}

	ref := &Reference[*symbol]{}
	ref.SetText("y")
	ref.SetResolver(func(string) (*symbol, bool) {
		calls++
		return target, calls > 2
	})

	_, ok := ref.Get()
	assert.False(t, ok)
	_, ok = ref.Get()
	assert.False(t, ok)

	got, ok := ref.Get()
	require.True(t, ok)
	assert.Same(t, target, got)
	assert.Equal(t, 3, calls)

	// resolved for good: the resolver is not consulted again
	got, ok = ref.Get()
	require.True(t, ok)
	assert.Same(t, target, got)
	assert.Equal(t, 3, calls)
}
