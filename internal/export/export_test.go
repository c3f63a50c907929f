package export

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/foreman/internal/model"
	"github.com/mmr-tortoise/foreman/internal/procfile"
)

// manifest is a fixed Manifest for rendering tests.
type manifest struct {
	dir     string
	entries []procfile.Entry
}

func (m manifest) Dir() string               { return m.dir }
func (m manifest) Entries() []procfile.Entry { return m.entries }

func blog() manifest {
	return manifest{
		dir: "/srv/blog",
		entries: []procfile.Entry{
			{Name: "web", Command: "./web"},
			{Name: "worker", Command: "./worker -q default"},
		},
	}
}

func TestFormats(t *testing.T) {
	assert.Equal(t, []string{"inittab", "upstart"}, Formats())

	for _, name := range Formats() {
		f, ok := Lookup(name)
		assert.True(t, ok, name)
		assert.NotNil(t, f, name)
	}

	_, ok := Lookup("systemd")
	assert.False(t, ok)
}

func TestResolveSettings(t *testing.T) {
	tests := []struct {
		name string
		opts model.OptionSet
		want settings
	}{
		{
			name: "defaults",
			opts: model.OptionSet{},
			want: settings{app: "blog", dir: "/srv/blog", log: "/var/log/blog", user: "blog", base: 5000},
		},
		{
			name: "explicit options",
			opts: model.OptionSet{"app": "news", "log": "/tmp/log", "user": "deploy", "port": 3000},
			want: settings{app: "news", dir: "/srv/blog", log: "/tmp/log", user: "deploy", base: 3000},
		},
		{
			name: "log and user follow the app name",
			opts: model.OptionSet{"app": "news"},
			want: settings{app: "news", dir: "/srv/blog", log: "/var/log/news", user: "news", base: 5000},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveSettings(blog(), tt.opts)
			require.NoError(t, err)
			got.concurrency = nil
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveSettings_Errors(t *testing.T) {
	var exportErr *Error

	_, err := resolveSettings(blog(), model.OptionSet{"port": "http"})
	require.Error(t, err)
	assert.True(t, errors.As(err, &exportErr))

	_, err = resolveSettings(blog(), model.OptionSet{"concurrency": "web=x"})
	require.Error(t, err)
	assert.True(t, errors.As(err, &exportErr))
}

func TestInittab_Stdout(t *testing.T) {
	var out bytes.Buffer
	f := NewInittab(blog(), &out)

	err := f.Export("", model.OptionSet{"concurrency": "web=2"})
	require.NoError(t, err)

	want := strings.Join([]string{
		"# ----- foreman blog processes -----",
		"BL01:4:respawn:/bin/su - blog -c 'cd /srv/blog;export PORT=5000;./web >> /var/log/blog/web-1.log 2>&1'",
		"BL02:4:respawn:/bin/su - blog -c 'cd /srv/blog;export PORT=5001;./web >> /var/log/blog/web-2.log 2>&1'",
		"BL03:4:respawn:/bin/su - blog -c 'cd /srv/blog;export PORT=5100;./worker -q default >> /var/log/blog/worker-1.log 2>&1'",
		"# ----- end foreman blog processes -----",
		"",
	}, "\n")
	assert.Equal(t, want, out.String())
}

func TestInittab_File(t *testing.T) {
	dir := t.TempDir()
	logDir := filepath.Join(dir, "log")
	target := filepath.Join(dir, "inittab")

	var out bytes.Buffer
	f := NewInittab(blog(), &out)
	err := f.Export(target, model.OptionSet{"log": logDir, "app": "x", "concurrency": "worker=0"})
	require.NoError(t, err)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "X01:4:respawn:/bin/su - x -c 'cd /srv/blog;export PORT=5000;./web >> "+logDir+"/web-1.log 2>&1'", lines[1])

	assert.DirExists(t, logDir)
	assert.Contains(t, out.String(), "writing: "+target)
}

// TestInittab_MultiByteAppName checks that the id prefix keeps whole
// characters of a non-ASCII app name.
func TestInittab_MultiByteAppName(t *testing.T) {
	var out bytes.Buffer
	f := NewInittab(blog(), &out)

	err := f.Export("", model.OptionSet{"app": "ébène", "concurrency": "worker=0"})
	require.NoError(t, err)

	assert.True(t, utf8.ValidString(out.String()))
	assert.Contains(t, out.String(), "\nÉB01:4:respawn:/bin/su - ébène -c ")
}

func TestUpstart_RequiresLocation(t *testing.T) {
	err := NewUpstart(blog(), &bytes.Buffer{}).Export("", model.OptionSet{})
	require.Error(t, err)

	var exportErr *Error
	require.True(t, errors.As(err, &exportErr))
	assert.Equal(t, "Must specify a location", exportErr.Message)
}

func TestUpstart(t *testing.T) {
	location := filepath.Join(t.TempDir(), "init")
	logDir := filepath.Join(t.TempDir(), "log")

	// A job left over from an earlier export with a higher concurrency.
	require.NoError(t, os.MkdirAll(location, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(location, "blog-web-3.conf"), []byte("old"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(location, "other.conf"), []byte("keep"), 0o644))

	var out bytes.Buffer
	err := NewUpstart(blog(), &out).Export(location, model.OptionSet{
		"log":         logDir,
		"user":        "deploy",
		"port":        6000,
		"concurrency": "web=2",
	})
	require.NoError(t, err)

	read := func(name string) string {
		t.Helper()
		data, err := os.ReadFile(filepath.Join(location, name))
		require.NoError(t, err)
		return string(data)
	}

	assert.Contains(t, read("blog.conf"), "chown -R deploy "+logDir)
	assert.Equal(t, "start on starting blog\nstop on stopping blog\n", read("blog-web.conf"))
	assert.Contains(t, read("blog-worker.conf"), "start on starting blog")

	web2 := read("blog-web-2.conf")
	assert.Contains(t, web2, "start on starting blog-web\n")
	assert.Contains(t, web2, "respawn\n")
	assert.Contains(t, web2, "exec su - deploy -c 'cd /srv/blog; export PORT=6001; ./web >> "+logDir+"/web-2.log 2>&1'")

	assert.Contains(t, read("blog-worker-1.conf"), "export PORT=6100;")

	assert.NoFileExists(t, filepath.Join(location, "blog-web-3.conf"))
	assert.FileExists(t, filepath.Join(location, "other.conf"))
	assert.DirExists(t, logDir)
	assert.Contains(t, out.String(), "cleaning up: "+filepath.Join(location, "blog-web-3.conf"))
}
