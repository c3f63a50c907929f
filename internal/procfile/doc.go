// Package procfile parses the files that describe an application's
// processes: the Procfile itself, the .env file whose variables are
// exported to every process, and the "name=count" concurrency
// specification accepted by start and export.
package procfile
