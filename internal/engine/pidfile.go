package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/renameio/v2"
)

const (
	// DirMode is the permission of the pid directory.
	DirMode = 0o755

	// FileMode is the permission of pid files.
	FileMode = 0o644
)

func (e *Engine) pidPath(name string, num int) string {
	return filepath.Join(e.pidDir, fmt.Sprintf("%s.%d.pid", name, num))
}

// writePid records the process group leader of an instance.
func (e *Engine) writePid(inst instance, pid int) error {
	if err := os.MkdirAll(e.pidDir, DirMode); err != nil {
		return fmt.Errorf("creating pid directory: %w", err)
	}
	path := e.pidPath(inst.entry.Name, inst.num)
	if err := renameio.WriteFile(path, []byte(strconv.Itoa(pid)+"\n"), FileMode); err != nil {
		return fmt.Errorf("writing pid file %s: %w", path, err)
	}
	return nil
}

func (e *Engine) removePid(inst instance) {
	_ = os.Remove(e.pidPath(inst.entry.Name, inst.num))
}

// readPids returns the recorded pids of every instance of name, keyed by
// pid file path. Unreadable or malformed files are skipped.
func (e *Engine) readPids(name string) (map[string]int, error) {
	matches, err := filepath.Glob(filepath.Join(e.pidDir, name+".*.pid"))
	if err != nil {
		return nil, fmt.Errorf("listing pid files: %w", err)
	}

	pids := make(map[string]int, len(matches))
	for _, path := range matches {
		// "web.*.pid" also matches "web.extra.1.pid"; keep only numeric instances.
		num := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(path), name+"."), ".pid")
		if _, err := strconv.Atoi(num); err != nil {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
		if err != nil || pid <= 0 {
			continue
		}
		pids[path] = pid
	}
	return pids, nil
}
