package export

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/guillermoBallester/askdb/internal/core/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	res := &port.Result{
		Columns: []string{"id", "name", "raw", "created_at", "note"},
		Rows: []map[string]any{
			{
				"id":         int64(1),
				"name":       "Alice, Inc.",
				"raw":        []byte("bytes"),
				"created_at": time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
				"note":       nil,
			},
			{"id": 2.5, "name": `say "hi"`},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, res))
	assert.Equal(t,
		"id,name,raw,created_at,note\n"+
			"1,\"Alice, Inc.\",bytes,2025-01-02T03:04:05Z,\n"+
			"2.5,\"say \"\"hi\"\"\",,,\n",
		buf.String())
}

func TestWriteCSV_HeaderOnly(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, &port.Result{Columns: []string{"a", "b"}}))
	assert.Equal(t, "a,b\n", buf.String())
}

func TestWriteCSV_NilResult(t *testing.T) {
	t.Parallel()
	assert.Error(t, WriteCSV(&bytes.Buffer{}, nil))
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteCSV_WriterError(t *testing.T) {
	t.Parallel()

	err := WriteCSV(failWriter{}, &port.Result{Columns: []string{"a"}, Rows: []map[string]any{{"a": 1}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}
