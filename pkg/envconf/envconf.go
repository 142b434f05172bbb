// Package envconf provides defaults for command line flags from prefixed environment variables.
package envconf

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Env - reads values of variables with common prefix,
// first malformed value is remembered and reported by Err.
type Env struct {
	prefix string
	err    error
}

// Load - loads .env files (if they are present) into process environment
// without overriding variables which are already set.
func Load(prefix string, filenames ...string) (*Env, error) {
	if err := godotenv.Load(filenames...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("envconf.Load: %w", err)
	}
	return New(prefix), nil
}

// New - reads process environment only.
func New(prefix string) *Env {
	return &Env{prefix: prefix}
}

// Err - returns error for first malformed value.
func (e *Env) Err() error {
	return e.err
}

func (e *Env) lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(e.prefix + name)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (e *Env) fail(name, value string, err error) {
	if e.err == nil {
		e.err = fmt.Errorf("invalid %s%s value %q: %w", e.prefix, name, value, err)
	}
}

// String - returns variable value or def when it is unset or blank.
func (e *Env) String(name, def string) string {
	if v, ok := e.lookup(name); ok {
		return v
	}
	return def
}

func (e *Env) Uint(name string, def uint) uint {
	v, ok := e.lookup(name)
	if !ok {
		return def
	}
	u, err := strconv.ParseUint(v, 10, 0)
	if err != nil {
		e.fail(name, v, err)
		return def
	}
	return uint(u)
}

func (e *Env) Float(name string, def float64) float64 {
	v, ok := e.lookup(name)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.fail(name, v, err)
		return def
	}
	return f
}

func (e *Env) Bool(name string, def bool) bool {
	v, ok := e.lookup(name)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(name, v, err)
		return def
	}
	return b
}

// Duration - accepts time.ParseDuration format, e.g. "10s" or "500ms".
func (e *Env) Duration(name string, def time.Duration) time.Duration {
	v, ok := e.lookup(name)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(name, v, err)
		return def
	}
	return d
}
