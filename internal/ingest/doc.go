// Package ingest serializes journal writes from many data sources through
// one writer loop.
//
// Data sources call Submit from their own goroutines; a single Run loop
// applies batches in FIFO order, each in one store transaction. A failing
// batch is rolled back and its error returned to the submitter only; later
// batches are unaffected and nothing is retried.
//
// Thread-safety model:
//   - Submit(): safe from any goroutine
//   - Run(): must be called from exactly one goroutine
//   - Stop(): safe from any goroutine, idempotent
package ingest
