// Package engine runs the processes declared in a Procfile.
//
// Start launches every process type with its configured concurrency, each
// instance in its own process group with $PORT assigned by the port
// package and the .env variables exported. Output from all instances is
// merged onto one writer with a "time name.N | " prefix. When any instance
// exits, or the context is cancelled, the rest receive SIGTERM and are
// killed after a grace period.
//
// Running instances are recorded as pid files under tmp/pids next to the
// Procfile, which is how Restart, invoked from a separate foreman process,
// finds the instances to send SIGHUP to.
package engine
