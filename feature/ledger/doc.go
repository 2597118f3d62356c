// Package ledger keeps a database record of every scan attempt.
//
// Workers on several machines can share one MySQL ledger, while a single workstation
// can use a local SQLite file. The ledger observes a batch run and is never consulted
// for resumption; checkpoints remain the source of truth.
package ledger
