// Package server holds the configuration of the read-only status server.
//
// The serve command owns the Fiber application; this package only defines where it
// listens and the API key protecting it.
package server
