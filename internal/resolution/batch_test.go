package resolution

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/funvibe/givens/internal/symbols"
	"github.com/funvibe/givens/internal/typesystem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func injectionShape(r InjectionResult) string {
	switch r := r.(type) {
	case *InjectionSuccess:
		parts := make([]string, len(r.Results))
		for i, d := range r.Results {
			parts[i] = d.Request.Name + "=" + shape(d.Result)
		}
		return "ok{" + strings.Join(parts, ", ") + "}"
	case *InjectionError:
		return "error{" + r.FailureRequest.Name + ": " + shape(r.Failure) + "}"
	}
	return ""
}

// site builds a fresh scope tree per call so that jobs never share scopes.
func site(i int) Job {
	foo := class("Foo")
	bar := class("Bar")
	callables := []*symbols.Callable{
		provider("foo", foo.DefaultType()),
		provider("bar", bar.DefaultType(), injected(0, "foo", foo.DefaultType())),
	}
	for j := 0; j < i%3; j++ {
		callables = append(callables, provider(fmt.Sprintf("n%d", j), intType()))
	}
	callee := provider(fmt.Sprintf("site%d", i), typesystem.UnitClassifier.DefaultType(),
		injected(0, "bar", bar.DefaultType()),
		injected(1, "number", intType()),
		injected(2, "numbers", typeOf(typesystem.ListClassifier, intType())))
	return Job{
		Name:     callee.Name,
		Scope:    rootScope(callables...),
		Callee:   callee,
		Requests: callee.Requests(),
	}
}

func TestResolveAllMatchesSequential(t *testing.T) {
	const n = 24
	jobs := make([]Job, n)
	for i := range jobs {
		jobs[i] = site(i)
	}

	got, err := ResolveAll(context.Background(), jobs)
	require.NoError(t, err)
	require.Len(t, got, n)

	for i := 0; i < n; i++ {
		job := site(i)
		want := NewResolver().ResolveRequests(job.Scope, job.Callee, job.Requests)
		assert.Equal(t, injectionShape(want), injectionShape(got[i]), job.Name)
	}

	assert.Equal(t, "error{number: none[Int]}", injectionShape(got[0]))
	assert.Equal(t, "ok{bar=bar:Bar(foo=foo:Foo), number=n0:Int, numbers=listOf<Int>:List<Int>(element0=n0:Int#element#1)}",
		injectionShape(got[1]))
	assert.Equal(t, "error{number: ambiguous[2]}", injectionShape(got[2]))
}

func TestResolveAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ResolveAll(ctx, []Job{site(1)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolveAllLimit(t *testing.T) {
	jobs := []Job{site(0), site(1), site(2), site(3)}

	for _, limit := range []int{-1, 0, 1, 3} {
		t.Run(fmt.Sprint(limit), func(t *testing.T) {
			got, err := ResolveAllLimit(context.Background(), jobs, limit)
			require.NoError(t, err)
			require.Len(t, got, len(jobs))
			assert.Equal(t, "error{number: none[Int]}", injectionShape(got[3]))
		})
	}
}
