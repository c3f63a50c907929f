package port

import (
	"fmt"
)

const (
	// DefaultBase is the first port handed out when no --port is given.
	DefaultBase = 5000

	// processStride separates the port ranges of consecutive process types.
	// The first process type gets base..base+99, the second base+100.., etc.
	processStride = 100

	// maxPort is the highest valid TCP/UDP port number (2^16 - 1).
	maxPort = 65535
)

// For computes the port of one instance:
//
//	port = base + processIndex*100 + instance - 1
//
// processIndex is the 0-based position of the process type in the Procfile
// and instance is 1-based.
//
// Example: base=5000, "worker" declared second, instance 2 → 5101.
func For(base, processIndex, instance int) int {
	return base + processIndex*processStride + instance - 1
}

// Assignment is the port given to one process instance.
type Assignment struct {
	// Process is the process type name.
	Process string

	// Instance is the 1-based instance number.
	Instance int

	// Port is the value exported to the instance as $PORT.
	Port int
}

// String formats the assignment as "web.1:5000".
func (a Assignment) String() string {
	return fmt.Sprintf("%s.%d:%d", a.Process, a.Instance, a.Port)
}

// Allocator assigns ports to process instances and reports which of them
// are already taken on the host.
type Allocator struct {
	// scanner asks the OS whether a port is free.
	scanner *Scanner

	base int
}

// NewAllocator creates an Allocator starting at base. A non-positive base
// selects DefaultBase.
func NewAllocator(scanner *Scanner, base int) *Allocator {
	if base <= 0 {
		base = DefaultBase
	}
	return &Allocator{scanner: scanner, base: base}
}

// Base returns the first port of the allocation.
func (a *Allocator) Base() int {
	return a.base
}

// Assign returns the port of instance (1-based) of the process declared at
// processIndex. It fails when the computed port falls outside 1-65535.
func (a *Allocator) Assign(process string, processIndex, instance int) (Assignment, error) {
	if processIndex < 0 {
		return Assignment{}, fmt.Errorf("process %q: negative index %d", process, processIndex)
	}
	if instance < 1 {
		return Assignment{}, fmt.Errorf("process %q: instance numbers start at 1, got %d", process, instance)
	}

	p := For(a.base, processIndex, instance)
	if p < 1 || p > maxPort {
		return Assignment{}, fmt.Errorf("process %q instance %d: port %d out of range (1-%d)", process, instance, p, maxPort)
	}
	return Assignment{Process: process, Instance: instance, Port: p}, nil
}

// Busy returns the assignments whose port is already in use on the host.
func (a *Allocator) Busy(assignments []Assignment) []Assignment {
	var busy []Assignment
	for _, as := range assignments {
		if !a.scanner.IsPortAvailable(as.Port) {
			busy = append(busy, as)
		}
	}
	return busy
}
