// Package port assigns $PORT values to process instances and checks
// their availability on the host.
//
// Every process type owns a block of 100 ports starting at the base port,
// in Procfile order:
//
//	port = base + processIndex*100 + instance - 1
//
// The same formula is used when starting processes and when exporting them
// to an init system, so an exported application listens on the ports it
// used in development. The Scanner verifies OS-level availability with
// net.Listen so start can warn about collisions before launching.
package port
