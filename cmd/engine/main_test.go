package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thisisjab/usersearch/engine"
	"github.com/thisisjab/usersearch/source"
)

const schema = `
tables:
  - name: users
    columns:
      - {name: name, type: string}
      - {name: age, type: integer}
`

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(schema), 0o600))

	src := source.NewFileSchemaSource(logger, source.FileSchemaSourceConfig{Path: path})
	eng, err := engine.New(engine.Config{
		Sources:             map[string]engine.SchemaSource{src.Name(): src},
		CompileWorkersCount: 2,
	}, logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- eng.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	select {
	case <-eng.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not become ready")
	}
	return eng
}

func TestCompileJobs(t *testing.T) {
	eng := newTestEngine(t)
	id := uuid.NewString()

	in := strings.Join([]string{
		`{"id":"` + id + `","table":"users","search":{"age":"18..65"}}`,
		`not json`,
		``,
		`{"table":"orders","search":{"total":"1"}}`,
		`{"id":"abc","table":"users"}`,
		`{"table":"users","search":{"name":"jo%;!"}}`,
	}, "\n")

	var out bytes.Buffer
	require.NoError(t, compileJobs(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil)), eng, strings.NewReader(in), &out))

	var results []resultLine
	dec := json.NewDecoder(&out)
	for dec.More() {
		var r resultLine
		require.NoError(t, dec.Decode(&r))
		results = append(results, r)
	}
	require.Len(t, results, 5)

	assert.Equal(t, id, results[0].ID)
	assert.Equal(t, 1, results[0].Line)
	require.NotNil(t, results[0].Compiled)
	assert.Equal(t, "18..65", results[0].Compiled.Columns[0].ExecutedSearch)

	assert.Equal(t, 2, results[1].Line)
	assert.Contains(t, results[1].Error, "invalid job")

	assert.Equal(t, 4, results[2].Line)
	assert.NotEmpty(t, results[2].Error)
	_, err := uuid.Parse(results[2].ID)
	assert.NoError(t, err)

	assert.Equal(t, "invalid job id", results[3].Error)

	assert.Equal(t, 6, results[4].Line)
	require.NotNil(t, results[4].Compiled)
	assert.Equal(t, "jo%;!", results[4].Compiled.Columns[0].ExecutedSearch)
}
