package datastore

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	confAssign  = regexp.MustCompile(`^(?:export[ \t]+)?([A-Za-z0-9_\-${}.+/~:]+?)[ \t]*(\?\?=|\?=|:=|\+=|=\+|\.=|=\.|=)[ \t]*(["'])(.*)(["'])[ \t]*$`)
	confInclude = regexp.MustCompile(`^(include|require)[ \t]+(.+?)[ \t]*$`)
)

// ParseConfigFile reads a configuration file such as a layer's conf/layer.conf
// into store. It understands the assignment operators, line continuation,
// comments, and include/require of further files (relative to the including
// file). Lines it does not recognise are ignored.
func ParseConfigFile(path string, store Store) error {
	return parseConfigFile(path, store, 0)
}

func parseConfigFile(path string, store Store, depth int) error {
	if depth > 16 {
		return fmt.Errorf("include depth exceeded at %s", path)
	}
	f, err := os.Open(path) // #nosec G304 -- configuration path chosen by the caller
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var logical strings.Builder
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), " \t\r")
		if strings.HasSuffix(line, `\`) {
			logical.WriteString(strings.TrimSuffix(line, `\`))
			continue
		}
		logical.WriteString(line)
		text := logical.String()
		logical.Reset()
		if err := applyConfigLine(text, path, store, depth); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	if logical.Len() > 0 {
		return applyConfigLine(logical.String(), path, store, depth)
	}
	return nil
}

func applyConfigLine(text, path string, store Store, depth int) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return nil
	}
	if m := confInclude.FindStringSubmatch(trimmed); m != nil {
		inc := store.Expand(m[2])
		if !filepath.IsAbs(inc) {
			inc = filepath.Join(filepath.Dir(path), inc)
		}
		err := parseConfigFile(inc, store, depth+1)
		if err != nil && m[1] == "include" && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	m := confAssign.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	name, op, value := m[1], m[2], m[4]
	old, set := store.GetVar(name, false)
	switch op {
	case "?=", "??=":
		if !set {
			store.SetVar(name, value)
		}
	case ":=":
		store.SetVar(name, store.Expand(value))
	case "+=":
		store.SetVar(name, joinNonEmpty(old, value, " "))
	case "=+":
		store.SetVar(name, joinNonEmpty(value, old, " "))
	case ".=":
		store.SetVar(name, old+value)
	case "=.":
		store.SetVar(name, value+old)
	default:
		store.SetVar(name, value)
	}
	return nil
}

func joinNonEmpty(a, b, sep string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + sep + b
	}
}
