// Package app bootstraps the batch programs: it loads the configuration,
// resolves and creates the data directories, and starts logging and
// telemetry. Close flushes the run's metrics to a Prometheus textfile.
package app
