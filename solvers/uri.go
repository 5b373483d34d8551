package solvers

import (
	"encoding/base64"
	"io/fs"
	"os"
	"strings"

	"github.com/knadh/koanf/v2"
)

type uris struct {
	fs     fs.FS
	delims *delimiters
}

// NewURISolver resolves values of the form @proto://payload, replacing the
// whole value with the protocol's expansion. Supported protocols are file
// (payload is a path read from the working directory) and base64.
func NewURISolver(start, end string) ConfigSolver {
	return NewURISolverWithFS(start, end, os.DirFS("."))
}

// NewURISolverWithFS is NewURISolver reading file payloads from f.
func NewURISolverWithFS(start, end string, f fs.FS) ConfigSolver {
	return &uris{
		fs:     f,
		delims: &delimiters{Start: start, End: end},
	}
}

func (s uris) Solve(config *koanf.Koanf) *koanf.Koanf {
	for key, val := range config.All() {
		str, ok := val.(string)
		if !ok {
			continue
		}
		s.resolve(key, str, config)
	}
	return config
}

func (s uris) resolve(key, val string, config *koanf.Koanf) {
	if !strings.HasPrefix(val, s.delims.Start) {
		return
	}
	end := strings.Index(val, s.delims.End)
	if end < len(s.delims.Start) {
		return
	}

	protocol := val[len(s.delims.Start):end]
	payload := val[end+len(s.delims.End):]

	switch protocol {
	case "file":
		if content, err := SolveFileProtocol(s.fs, payload); err == nil {
			config.Set(key, content)
		}
	case "base64":
		if content, err := SolveBase64DecodeProtocol(payload); err == nil {
			config.Set(key, content)
		}
	}
}

// SolveFileProtocol reads the file at uri, trimming trailing newlines.
func SolveFileProtocol(f fs.FS, uri string) (string, error) {
	b, err := fs.ReadFile(f, uri)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(b), "\n"), nil
}

// SolveBase64DecodeProtocol decodes a standard base64 payload.
func SolveBase64DecodeProtocol(payload string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
