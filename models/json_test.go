package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONScan(t *testing.T) {
	var j JSON
	require.NoError(t, j.Scan([]byte(`{"a":1}`)))
	assert.JSONEq(t, `{"a":1}`, string(j))

	require.NoError(t, j.Scan(`{"b":2}`))
	assert.JSONEq(t, `{"b":2}`, string(j))

	require.NoError(t, j.Scan(nil))
	assert.True(t, j.IsNull())

	assert.Error(t, j.Scan(42))
}

func TestJSONValue(t *testing.T) {
	value, err := JSON(nil).Value()
	require.NoError(t, err)
	assert.Nil(t, value)

	value, err = JSON(`null`).Value()
	require.NoError(t, err)
	assert.Nil(t, value)

	value, err = JSON(`{"x":true}`).Value()
	require.NoError(t, err)
	assert.Equal(t, `{"x":true}`, value)
}

func TestJSONInStruct(t *testing.T) {
	type wrapper struct {
		Content JSON `json:"content"`
	}

	data, err := json.Marshal(wrapper{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"content":null}`, string(data))

	var w wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"content":{"type":"doc"}}`), &w))
	assert.JSONEq(t, `{"type":"doc"}`, string(w.Content))

	require.NoError(t, json.Unmarshal([]byte(`{"content":null}`), &w))
	assert.True(t, w.Content.IsNull())
}

func TestNewJSON(t *testing.T) {
	j, err := NewJSON(nil)
	require.NoError(t, err)
	assert.Nil(t, j)

	var doc *Document
	j, err = NewJSON(doc)
	require.NoError(t, err)
	assert.Nil(t, j)

	j, err = NewJSON(map[string]int{"n": 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":1}`, string(j))

	_, err = NewJSON(make(chan int))
	assert.Error(t, err)
}
