package solvers

import (
	"encoding/base64"
	"testing"
	"testing/fstest"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/v2"
	"github.com/stretchr/testify/assert"
)

func TestURISolverFileProtocol(t *testing.T) {
	fsys := fstest.MapFS{
		"secrets/db_password": {Data: []byte("s3cret\n")},
	}

	values := map[string]any{
		"database": map[string]any{
			"password": "@file://secrets/db_password",
		},
		"untouched": "plain value",
		"missing":   "@file://secrets/nope",
	}

	k := koanf.New(".")
	k.Load(confmap.Provider(values, "."), nil)

	solver := NewURISolverWithFS("@", "://", fsys)
	out := solver.Solve(k)

	assert.Equal(t, "s3cret", out.Get("database.password"))
	assert.Equal(t, "plain value", out.Get("untouched"))
	// unreadable payloads leave the value as declared
	assert.Equal(t, "@file://secrets/nope", out.Get("missing"))
}

func TestURISolverBase64Protocol(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("hello"))
	values := map[string]any{
		"token":   "@base64://" + encoded,
		"invalid": "@base64://%%%",
	}

	k := koanf.New(".")
	k.Load(confmap.Provider(values, "."), nil)

	solver := NewURISolverWithFS("@", "://", fstest.MapFS{})
	out := solver.Solve(k)

	assert.Equal(t, "hello", out.Get("token"))
	assert.Equal(t, "@base64://%%%", out.Get("invalid"))
}

func TestSolveFileProtocol(t *testing.T) {
	fsys := fstest.MapFS{"note.txt": {Data: []byte("content\n\n")}}

	content, err := SolveFileProtocol(fsys, "note.txt")
	assert.NoError(t, err)
	assert.Equal(t, "content", content)

	_, err = SolveFileProtocol(fsys, "missing.txt")
	assert.Error(t, err)
}
