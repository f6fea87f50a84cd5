package morgen

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractListShapes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"bare array", `[{"id":"a"},{"id":"b"}]`, 2},
		{"data array", `{"data":[{"id":"a"}]}`, 1},
		{"data keyed", `{"data":{"tags":[{"id":"a"},{"id":"b"},{"id":"c"}]}}`, 3},
		{"keyed without envelope", `{"tags":[{"id":"a"}]}`, 1},
		{"empty data object", `{"data":{}}`, 0},
		{"unrelated object", `{"other":[{"id":"a"}]}`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := extractList(json.RawMessage(tt.raw), "tags")
			assert.Len(t, items, tt.want)
		})
	}
}

func TestDecodeListValidates(t *testing.T) {
	tags, err := decodeList[Tag](json.RawMessage(`{"data":{"tags":[{"id":"t1","name":"urgent"}]}}`), "tags")
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "urgent", tags[0].Name)

	_, err = decodeList[Tag](json.RawMessage(`[{"name":"missing id"}]`), "tags")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required id")
}

func TestDecodeSingleShapes(t *testing.T) {
	for name, raw := range map[string]string{
		"keyed envelope": `{"data":{"task":{"id":"t1","title":"x"}}}`,
		"data object":    `{"data":{"id":"t1","title":"x"}}`,
		"bare object":    `{"id":"t1","title":"x"}`,
	} {
		t.Run(name, func(t *testing.T) {
			task, err := decodeSingle[Task](json.RawMessage(raw), "task")
			require.NoError(t, err)
			require.NotNil(t, task)
			assert.Equal(t, "t1", task.ID)
		})
	}
}

func TestDecodeSingleEmptyBody(t *testing.T) {
	task, err := decodeSingle[Task](nil, "task")
	require.NoError(t, err)
	assert.Nil(t, task)

	task, err = decodeSingle[Task](json.RawMessage(`null`), "task")
	require.NoError(t, err)
	assert.Nil(t, task)
}

func TestUnwrapDataNonObject(t *testing.T) {
	raw := json.RawMessage(`[1,2,3]`)
	assert.Equal(t, raw, unwrapData(raw))
}
