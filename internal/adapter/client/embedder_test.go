package client

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunk(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	var got [][]int
	for batch := range chunk(items, 2) {
		got = append(got, slices.Clone(batch))
	}
	assert.Equal(t, [][]int{{1, 2}, {3, 4}, {5}}, got)

	for range chunk([]int{}, 2) {
		t.Fatal("empty input must not yield")
	}
}

func TestEmbedderConfig(t *testing.T) {
	e := NewEmbedderFromClient(nil, "text-embedding-004", 768)
	cfg := e.config(taskQuery)
	assert.Equal(t, taskQuery, cfg.TaskType)
	if assert.NotNil(t, cfg.OutputDimensionality) {
		assert.EqualValues(t, 768, *cfg.OutputDimensionality)
	}

	assert.Nil(t, NewEmbedderFromClient(nil, "m", 0).config(taskDocument).OutputDimensionality)
}
