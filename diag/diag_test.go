package diag

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simon-lentz/anf/location"
)

func TestIssueBuilder(t *testing.T) {
	src := location.MustNewSourceID("inline:test")
	issue := NewIssue(Error, E_SHAPE_MISMATCH, "incompatible shapes").
		WithSpan(location.Point(src, 3, 1)).
		WithHint("check operand ranks").
		WithDetail("want", "(3, 5)").
		WithDetail("got", "(3, 4)").
		Build()

	assert.Equal(t, Error, issue.Severity())
	assert.Equal(t, E_SHAPE_MISMATCH, issue.Code())
	assert.Equal(t, "incompatible shapes", issue.Message())
	assert.Equal(t, "check operand ranks", issue.Hint())
	assert.True(t, issue.HasSpan())
	require.Len(t, issue.Details(), 2)
	assert.Equal(t, "want", issue.Details()[0].Key)
}

func TestIssueBuilder_ForkIsIndependent(t *testing.T) {
	base := NewIssue(Warning, E_NOT_SUPPORTED, "unsupported construct")
	a := base.WithDetail("form", "for")
	b := base.WithDetail("form", "break")

	assert.Equal(t, "for", a.Build().Details()[0].Value)
	assert.Equal(t, "break", b.Build().Details()[0].Value)
}

func TestBuild_PanicsOnZeroBuilder(t *testing.T) {
	assert.Panics(t, func() {
		var b IssueBuilder
		b.Build()
	})
}

func TestCollector(t *testing.T) {
	c := NewCollector()
	assert.True(t, c.OK())

	c.Collect(NewIssue(Warning, E_NOT_SUPPORTED, "w").Build())
	assert.True(t, c.OK())

	c.Collect(NewIssue(Error, E_WRONG_ARITY, "e").Build())
	assert.False(t, c.OK())
	assert.Equal(t, 2, c.Len())

	r := c.Result()
	assert.True(t, r.HasErrors())
	assert.Equal(t, 2, r.Len())

	_, found := r.FindCode(E_WRONG_ARITY)
	assert.True(t, found)
	_, found = r.FindCode(E_SHAPE_MISMATCH)
	assert.False(t, found)
}

func TestCollector_PanicsOnInvalidIssue(t *testing.T) {
	c := NewCollector()
	assert.Panics(t, func() {
		c.Collect(Issue{})
	})
}

func TestCollector_Concurrent(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				c.Collect(NewIssue(Info, E_INTERNAL, "note").Build())
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 800, c.Len())
	assert.True(t, c.OK())
}

func TestResult_Merge(t *testing.T) {
	a := ResultOf(NewIssue(Warning, E_NOT_SUPPORTED, "w").Build())
	b := ResultOf(NewIssue(Error, E_UNRESOLVED_NAME, "e").Build())

	m := a.Merge(b)
	assert.Equal(t, 2, m.Len())
	assert.True(t, m.HasErrors())
	assert.False(t, a.HasErrors())
}

func TestResult_Zero(t *testing.T) {
	r := OK()
	assert.True(t, r.IsOK())
	assert.Equal(t, "ok", r.String())
	assert.Nil(t, r.Issues())
}

func TestCodeCategories(t *testing.T) {
	assert.Equal(t, CategoryParse, E_NOT_SUPPORTED.Category())
	assert.Equal(t, CategoryVM, E_UNCALLABLE.Category())
	assert.Equal(t, CategoryInfer, E_INFERENCE_TIMEOUT.Category())
	assert.Equal(t, "E_INVALID_GRAPH", E_INVALID_GRAPH.String())
	assert.False(t, E_INTERNAL.IsZero())
	assert.True(t, Code{}.IsZero())
}
