package sync

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Lookup(t *testing.T) {
	r := NewDefaultRegistry()

	valueType, ok := r.Get("value")
	require.True(t, ok)
	assert.Equal(t, "value", valueType.Name())

	// Empty name defaults to the value type.
	defaulted, ok := r.Get("")
	require.True(t, ok)
	assert.Equal(t, "value", defaulted.Name())

	accType, ok := r.Get("accumulation")
	require.True(t, ok)
	assert.True(t, accType.AlwaysMerge())

	_, ok = r.Get("no-such-type")
	assert.False(t, ok)
}

func TestValueType_OverwritesEntirely(t *testing.T) {
	vt := ValueType{}

	merged, err := vt.Merge(json.RawMessage(`{"a":1}`), json.RawMessage(`"replaced"`))
	require.NoError(t, err)
	assert.JSONEq(t, `"replaced"`, string(merged))

	resolved, err := vt.Resolve(merged)
	require.NoError(t, err)
	assert.JSONEq(t, `"replaced"`, string(resolved))
}

func TestAccumulationType_NumericFold(t *testing.T) {
	at := AccumulationType{}

	stored, err := at.Merge(nil, json.RawMessage(`[{"id":1,"value":3},{"id":2,"value":4}]`))
	require.NoError(t, err)

	resolved, err := at.Resolve(stored)
	require.NoError(t, err)
	assert.JSONEq(t, `7`, string(resolved))
}

func TestAccumulationType_StringConcat(t *testing.T) {
	at := AccumulationType{}

	stored, err := at.Merge(nil, json.RawMessage(`[{"id":"a","value":"foo"},{"id":"b","value":"bar"}]`))
	require.NoError(t, err)

	resolved, err := at.Resolve(stored)
	require.NoError(t, err)
	assert.JSONEq(t, `"foobar"`, string(resolved))
}

func TestAccumulationType_Idempotent(t *testing.T) {
	at := AccumulationType{}
	change := json.RawMessage(`[{"id":"x","value":5}]`)

	once, err := at.Merge(nil, change)
	require.NoError(t, err)

	twice, err := at.Merge(once, change)
	require.NoError(t, err)

	a, err := at.Resolve(once)
	require.NoError(t, err)
	b, err := at.Resolve(twice)
	require.NoError(t, err)

	assert.JSONEq(t, string(a), string(b))
	assert.JSONEq(t, `5`, string(b))
}

func TestAccumulationType_Commutative(t *testing.T) {
	at := AccumulationType{}

	forward, err := at.Merge(nil, json.RawMessage(`[{"id":1,"value":3},{"id":2,"value":4}]`))
	require.NoError(t, err)

	reversed, err := at.Merge(nil, json.RawMessage(`[{"id":2,"value":4},{"id":1,"value":3}]`))
	require.NoError(t, err)

	a, err := at.Resolve(forward)
	require.NoError(t, err)
	b, err := at.Resolve(reversed)
	require.NoError(t, err)

	assert.JSONEq(t, `7`, string(a))
	assert.JSONEq(t, string(a), string(b))
}

func TestAccumulationType_DistinctIDKinds(t *testing.T) {
	// The number 1 and the string "1" are different change IDs.
	at := AccumulationType{}

	stored, err := at.Merge(nil, json.RawMessage(`[{"id":1,"value":2},{"id":"1","value":2}]`))
	require.NoError(t, err)

	resolved, err := at.Resolve(stored)
	require.NoError(t, err)
	assert.JSONEq(t, `4`, string(resolved))
}

func TestAccumulationType_MalformedInput(t *testing.T) {
	at := AccumulationType{}

	_, err := at.Merge(json.RawMessage(`"not an accumulator"`), json.RawMessage(`[]`))
	assert.Error(t, err)

	_, err = at.Merge(nil, json.RawMessage(`{"id":1}`))
	assert.Error(t, err)

	_, err = at.Merge(nil, json.RawMessage(`[{"id":1,"value":"s"},{"id":2,"value":3}]`))
	assert.Error(t, err, "mixing string and number values cannot accumulate")
}

func TestAccumulationType_ResolveEmpty(t *testing.T) {
	at := AccumulationType{}

	resolved, err := at.Resolve(nil)
	require.NoError(t, err)
	assert.Nil(t, resolved)
}
