package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiFansOutAndSkipsNil(t *testing.T) {
	var got []string
	a := ObserverFunc(func(ctx OperationContext) { got = append(got, "a:"+ctx.Operation) })
	b := ObserverFunc(func(ctx OperationContext) { got = append(got, "b:"+ctx.Operation) })

	obs := Multi(a, nil, b)
	obs.ObserveOperation(OperationContext{
		Component: "access",
		Operation: "insert",
		Duration:  time.Millisecond,
		Error:     errors.New("boom"),
	})

	require.Len(t, got, 2)
	assert.Equal(t, []string{"a:insert", "b:insert"}, got)
}

func TestMultiEmpty(t *testing.T) {
	// Should not panic.
	Multi().ObserveOperation(OperationContext{Operation: "query"})
}
