package export

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/template"

	"github.com/mmr-tortoise/foreman/internal/model"
)

//go:embed templates/upstart/*.tmpl
var upstartFS embed.FS

var upstartTemplates = template.Must(template.ParseFS(upstartFS, "templates/upstart/*.tmpl"))

// Upstart renders one master job for the application, one job per process
// type and one job per process instance.
type Upstart struct {
	manifest Manifest
	out      io.Writer
}

// NewUpstart returns an upstart formatter for m.
func NewUpstart(m Manifest, out io.Writer) Formatter {
	return &Upstart{manifest: m, out: out}
}

type upstartData struct {
	App  string
	Dir  string
	Log  string
	User string
	Job  job
}

// Export writes the job files into location, which must be given.
// Existing files for the same application are replaced.
func (f *Upstart) Export(location string, opts model.OptionSet) error {
	if location == "" {
		return errorf("Must specify a location")
	}
	s, err := resolveSettings(f.manifest, opts)
	if err != nil {
		return err
	}
	for _, dir := range []string{location, s.log} {
		if err := mkdirAll(dir); err != nil {
			return err
		}
	}
	if err := f.clean(location, s.app); err != nil {
		return err
	}

	data := upstartData{App: s.app, Dir: s.dir, Log: s.log, User: s.user}
	if err := f.render(filepath.Join(location, s.app+".conf"), "master.conf.tmpl", data); err != nil {
		return err
	}

	written := map[string]bool{}
	for _, j := range s.jobs(f.manifest) {
		data.Job = j
		if !written[j.Name] {
			written[j.Name] = true
			path := filepath.Join(location, fmt.Sprintf("%s-%s.conf", s.app, j.Name))
			if err := f.render(path, "process_master.conf.tmpl", data); err != nil {
				return err
			}
		}
		path := filepath.Join(location, fmt.Sprintf("%s-%s-%d.conf", s.app, j.Name, j.Num))
		if err := f.render(path, "process.conf.tmpl", data); err != nil {
			return err
		}
	}
	return nil
}

func (f *Upstart) render(path, name string, data upstartData) error {
	var buf bytes.Buffer
	if err := upstartTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return errorf("could not render %s: %v", name, err)
	}
	return writeFile(f.out, path, buf.Bytes())
}

// clean removes job files left by a previous export of app.
func (f *Upstart) clean(location, app string) error {
	stale, err := filepath.Glob(filepath.Join(location, app+"-*.conf"))
	if err != nil {
		return errorf("could not clean %s: %v", location, err)
	}
	stale = append(stale, filepath.Join(location, app+".conf"))
	for _, path := range stale {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return errorf("could not remove %s", path)
		}
		if err == nil {
			_, _ = fmt.Fprintf(f.out, "[foreman export] cleaning up: %s\n", path)
		}
	}
	return nil
}
