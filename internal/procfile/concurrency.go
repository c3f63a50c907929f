package procfile

import (
	"fmt"
	"strconv"
	"strings"
)

// Concurrency holds the number of instances to run per process type.
// Process types that are not listed run one instance.
type Concurrency map[string]int

// Count returns the instance count for name.
func (c Concurrency) Count(name string) int {
	if n, ok := c[name]; ok {
		return n
	}
	return 1
}

// ParseConcurrency parses a "name=count,name=count" specification.
// An empty string yields an empty Concurrency.
func ParseConcurrency(spec string) (Concurrency, error) {
	c := make(Concurrency)
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return c, nil
	}

	for _, pair := range strings.Split(spec, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, count, found := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !found || name == "" {
			return nil, fmt.Errorf("invalid concurrency %q: expected name=count", pair)
		}
		n, err := strconv.Atoi(strings.TrimSpace(count))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid concurrency %q: count must be a non-negative integer", pair)
		}
		c[name] = n
	}
	return c, nil
}
