// Package report collects scan outcomes into the run summary printed at the end of a
// worker run and, optionally, saved as JSON.
package report
