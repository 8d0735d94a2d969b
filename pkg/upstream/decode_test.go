package upstream

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeListShapes(t *testing.T) {
	shapes := map[string]string{
		"bare":    `[{"id":1},{"id":2}]`,
		"data":    `{"data":[{"id":1},{"id":2}]}`,
		"content": `{"content":[{"id":1},{"id":2}],"totalElements":2}`,
		"paged":   `{"data":{"content":[{"id":1},{"id":2}]}}`,
	}
	for name, body := range shapes {
		t.Run(name, func(t *testing.T) {
			records, err := DecodeList([]byte(body))
			require.NoError(t, err)
			require.Len(t, records, 2)
			assert.Equal(t, json.Number("1"), records[0]["id"])
		})
	}
}

func TestDecodeListEmptyAndInvalid(t *testing.T) {
	records, err := DecodeList(nil)
	require.NoError(t, err)
	assert.Empty(t, records)

	_, err = DecodeList([]byte(`{"total":3}`))
	assert.Error(t, err)

	records, err = DecodeList([]byte(`[1, {"id":"a"}, "x"]`))
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestDecodeRecordUnwrapsData(t *testing.T) {
	rec, err := DecodeRecord([]byte(`{"data":{"id":42,"status":"DUE"}}`))
	require.NoError(t, err)
	assert.Equal(t, json.Number("42"), rec["id"])

	rec, err = DecodeRecord([]byte(`{"id":7,"data":{"note":"kept"}}`))
	require.NoError(t, err)
	assert.Equal(t, json.Number("7"), rec["id"])

	_, err = DecodeRecord([]byte(`[1]`))
	assert.Error(t, err)
}
