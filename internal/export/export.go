package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/renameio/v2"

	"github.com/mmr-tortoise/foreman/internal/model"
	"github.com/mmr-tortoise/foreman/internal/port"
	"github.com/mmr-tortoise/foreman/internal/procfile"
)

// Manifest is the application context a formatter renders: the directory
// the processes run in and the Procfile entries in declaration order.
type Manifest interface {
	Dir() string
	Entries() []procfile.Entry
}

// Formatter renders a manifest into one init-system format.
type Formatter interface {
	// Export writes the configuration to location. The meaning of an empty
	// location is format-specific.
	Export(location string, opts model.OptionSet) error
}

// Factory builds a Formatter bound to a manifest. Progress and, for
// formats that support it, the rendered output go to out.
type Factory func(m Manifest, out io.Writer) Formatter

// registry is the closed set of supported formats.
var registry = map[string]Factory{
	"inittab": NewInittab,
	"upstart": NewUpstart,
}

func init() {
	for name, f := range registry {
		if name == "" || f == nil {
			panic(fmt.Sprintf("export: invalid registry entry %q", name))
		}
	}
}

// Lookup returns the factory registered for format.
func Lookup(format string) (Factory, bool) {
	f, ok := registry[format]
	return f, ok
}

// Formats returns the supported format names in sorted order.
func Formats() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Error is an export-specific failure such as a missing location or an
// invalid option. Its message is shown to the user verbatim.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func errorf(format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

// settings are the options shared by every format, with defaults applied.
type settings struct {
	app         string
	dir         string
	log         string
	user        string
	base        int
	concurrency procfile.Concurrency
}

func resolveSettings(m Manifest, opts model.OptionSet) (settings, error) {
	s := settings{
		dir:  m.Dir(),
		app:  opts.String("app"),
		log:  opts.String("log"),
		user: opts.String("user"),
	}
	if s.app == "" {
		s.app = filepath.Base(s.dir)
	}
	if s.log == "" {
		s.log = "/var/log/" + s.app
	}
	if s.user == "" {
		s.user = s.app
	}

	base, ok, err := opts.Int("port")
	if err != nil {
		return settings{}, &Error{Message: err.Error()}
	}
	if !ok || base <= 0 {
		base = port.DefaultBase
	}
	s.base = base

	c, err := procfile.ParseConcurrency(opts.String("concurrency"))
	if err != nil {
		return settings{}, &Error{Message: err.Error()}
	}
	s.concurrency = c
	return s, nil
}

// job is one exported process instance.
type job struct {
	Name    string
	Num     int
	Port    int
	Command string
}

// jobs expands the manifest into instances in Procfile order.
func (s settings) jobs(m Manifest) []job {
	var out []job
	for idx, e := range m.Entries() {
		for n := 1; n <= s.concurrency.Count(e.Name); n++ {
			out = append(out, job{
				Name:    e.Name,
				Num:     n,
				Port:    port.For(s.base, idx, n),
				Command: e.Command,
			})
		}
	}
	return out
}

// writeFile atomically replaces path with data and reports it on out.
func writeFile(out io.Writer, path string, data []byte) error {
	_, _ = fmt.Fprintf(out, "[foreman export] writing: %s\n", path)
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return errorf("could not write %s: %v", path, err)
	}
	return nil
}

func mkdirAll(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errorf("could not create %s", dir)
	}
	return nil
}
