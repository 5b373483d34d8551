// Package env provides a koanf provider that renders environment variables
// as a JSON document, with support for array indexes in variable names.
package env

import (
	"errors"
	"os"
	"strings"

	"github.com/goliatone/go-coerce/logger"
	"github.com/tidwall/sjson"
)

// Env collects environment variables into a nested JSON document.
type Env struct {
	prefix string
	delim  string
	cb     func(key, value string) (string, any)
	out    string
	log    logger.Logger
}

// Provider returns an environment variables provider that produces a nested
// tree where the hierarchy is defined by delim. Numeric path segments build
// arrays:
//
//	APP_DATABASE__0__PASSWORD=pass_1
//	APP_DATABASE__1__PASSWORD=pass_2
//
// becomes {"database": [{"password": "pass_1"}, {"password": "pass_2"}]}
// once the callback lowercases and strips the prefix.
//
// Only variables carrying the (case-sensitive) prefix are captured. cb may
// rewrite the variable name; returning an empty string drops the variable.
func Provider(prefix, delim string, cb func(s string) string) *Env {
	e := &Env{
		prefix: prefix,
		delim:  delim,
		out:    "{}",
	}
	if cb != nil {
		e.cb = func(key, value string) (string, any) {
			return cb(key), value
		}
	}
	return e
}

// ProviderWithValue works like Provider but the callback also receives and
// may rewrite the value, useful for splitting strings into slices.
func ProviderWithValue(prefix, delim string, cb func(key, value string) (string, any)) *Env {
	return &Env{
		prefix: prefix,
		delim:  delim,
		cb:     cb,
		out:    "{}",
	}
}

// SetLogger attaches a logger used for debug output during reads.
func (e *Env) SetLogger(l logger.Logger) {
	e.log = l
}

// ReadBytes renders the captured environment as a JSON document.
func (e *Env) ReadBytes() ([]byte, error) {
	e.out = "{}"

	var keys []string
	for _, k := range os.Environ() {
		if e.prefix == "" || strings.HasPrefix(k, e.prefix) {
			keys = append(keys, k)
		}
	}

	if e.log != nil {
		e.log.Debug("env provider read", "matched", len(keys), "prefix", e.prefix)
	}

	for _, k := range keys {
		parts := strings.SplitN(k, "=", 2)

		var (
			key   string
			value any
		)
		if e.cb != nil {
			key, value = e.cb(parts[0], parts[1])
			if key == "" {
				continue
			}
		} else {
			key = parts[0]
			value = parts[1]
		}

		if err := e.set(key, value); err != nil {
			return []byte{}, err
		}
	}

	return []byte(e.out), nil
}

func (e *Env) set(key string, value any) error {
	out, err := sjson.Set(e.out, strings.Replace(key, e.delim, ".", -1), value)
	if err != nil {
		return err
	}
	e.out = out
	return nil
}

// Read is not supported, the provider emits bytes for a JSON parser.
func (e *Env) Read() (map[string]any, error) {
	return nil, errors.New("env provider does not support this method")
}
