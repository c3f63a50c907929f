package procfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// DefaultName is the conventional Procfile name, resolved relative to the
// working directory.
const DefaultName = "Procfile"

// Entry is a single process type declared in a Procfile.
type Entry struct {
	// Name is the process type, e.g. "web" or "worker".
	Name string

	// Command is the shell command line that runs one instance.
	Command string
}

// Procfile is a parsed manifest. Entries keep their declaration order.
type Procfile struct {
	// Path is the file the manifest was read from; empty for Parse.
	Path string

	entries []Entry
	index   map[string]int
}

// lineRegex matches "name: command". Names are restricted to the characters
// init systems accept in job names.
var lineRegex = regexp.MustCompile(`^([A-Za-z0-9_-]+):\s*(.+)$`)

// Load reads and parses the Procfile at path.
func Load(path string) (*Procfile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open procfile: %w", err)
	}
	defer func() { _ = f.Close() }()

	pf, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	pf.Path = path
	return pf, nil
}

// Parse reads a Procfile from r.
//
// Blank lines and lines starting with "#" are skipped. Every other line must
// match "name: command"; a malformed line or a repeated name is an error
// naming the offending line.
func Parse(r io.Reader) (*Procfile, error) {
	pf := &Procfile{index: make(map[string]int)}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		m := lineRegex.FindStringSubmatch(line)
		if m == nil {
			return nil, fmt.Errorf("line %d: expected \"name: command\", got %q", lineNo, line)
		}
		name, command := m[1], strings.TrimSpace(m[2])
		if _, dup := pf.index[name]; dup {
			return nil, fmt.Errorf("line %d: process %q is declared more than once", lineNo, name)
		}

		pf.index[name] = len(pf.entries)
		pf.entries = append(pf.entries, Entry{Name: name, Command: command})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read procfile: %w", err)
	}
	return pf, nil
}

// Entries returns a copy of the declared entries in order.
func (p *Procfile) Entries() []Entry {
	out := make([]Entry, len(p.entries))
	copy(out, p.entries)
	return out
}

// Names returns the process type names in declaration order.
func (p *Procfile) Names() []string {
	names := make([]string, 0, len(p.entries))
	for _, e := range p.entries {
		names = append(names, e.Name)
	}
	return names
}

// Lookup returns the entry named name.
func (p *Procfile) Lookup(name string) (Entry, bool) {
	i, ok := p.index[name]
	if !ok {
		return Entry{}, false
	}
	return p.entries[i], true
}

// IndexOf returns the declaration position of name, or -1.
func (p *Procfile) IndexOf(name string) int {
	if i, ok := p.index[name]; ok {
		return i
	}
	return -1
}

// Dir returns the absolute directory containing the Procfile, which is the
// working directory for every process it declares.
func (p *Procfile) Dir() string {
	if p.Path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "."
		}
		return wd
	}
	abs, err := filepath.Abs(filepath.Dir(p.Path))
	if err != nil {
		return filepath.Dir(p.Path)
	}
	return abs
}
