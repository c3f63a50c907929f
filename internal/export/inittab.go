package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/mmr-tortoise/foreman/internal/model"
)

// Inittab renders one respawn entry per process instance.
type Inittab struct {
	manifest Manifest
	out      io.Writer
}

// NewInittab returns an inittab formatter for m.
func NewInittab(m Manifest, out io.Writer) Formatter {
	return &Inittab{manifest: m, out: out}
}

// Export writes the inittab fragment to location, or prints it when
// location is empty.
func (f *Inittab) Export(location string, opts model.OptionSet) error {
	s, err := resolveSettings(f.manifest, opts)
	if err != nil {
		return err
	}

	text := renderInittab(s, s.jobs(f.manifest))
	if location == "" {
		_, _ = io.WriteString(f.out, text)
		return nil
	}

	if err := mkdirAll(s.log); err != nil {
		return err
	}
	return writeFile(f.out, location, []byte(text))
}

// renderInittab produces:
//
//	# ----- foreman blog processes -----
//	BL01:4:respawn:/bin/su - blog -c 'cd /srv/blog;export PORT=5000;./web >> /var/log/blog/web-1.log 2>&1'
//	# ----- end foreman blog processes -----
func renderInittab(s settings, jobs []job) string {
	// The id field is the first two characters of the app name, counted in
	// runes so a multi-byte name is not cut mid-character.
	app := []rune(s.app)
	prefix := strings.ToUpper(string(app[:min(2, len(app))]))

	var b strings.Builder
	fmt.Fprintf(&b, "# ----- foreman %s processes -----\n", s.app)
	for i, j := range jobs {
		commands := []string{
			"cd " + s.dir,
			fmt.Sprintf("export PORT=%d", j.Port),
			fmt.Sprintf("%s >> %s/%s-%d.log 2>&1", j.Command, s.log, j.Name, j.Num),
		}
		fmt.Fprintf(&b, "%s%02d:4:respawn:/bin/su - %s -c '%s'\n", prefix, i+1, s.user, strings.Join(commands, ";"))
	}
	fmt.Fprintf(&b, "# ----- end foreman %s processes -----\n", s.app)
	return b.String()
}
