// Package export renders a Procfile into init-system configuration.
//
// Formats are looked up by name in a closed registry (see Formats). Every
// formatter shares the same options: app, log, user, port and concurrency,
// defaulting to the Procfile directory name, /var/log/<app>, the app name,
// 5000 and one instance per process. Failures a user can act on, such as a
// missing location, are returned as *Error.
package export
