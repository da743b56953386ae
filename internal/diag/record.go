// Package diag carries failure reports out of the dashboard core.
//
// A Record is produced exactly once per failure path and handed to a Reporter.
// Sinks are best-effort: a sink that cannot deliver logs a warning and moves on,
// so reporting never changes the outcome of the operation that failed.
package diag

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// UnknownKind labels errors that carry no classification.
const UnknownKind = "unknown"

// DeliveryTimeout bounds how long Report lets sinks spend on one record.
const DeliveryTimeout = 5 * time.Second

// Record describes one failed operation.
type Record struct {
	ID        uuid.UUID `json:"id"`
	Operation string    `json:"operation"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	Time      time.Time `json:"time"`
}

// Reporter accepts failure records.
type Reporter interface {
	Report(ctx context.Context, rec Record)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(ctx context.Context, rec Record)

func (f ReporterFunc) Report(ctx context.Context, rec Record) { f(ctx, rec) }

type kinded interface {
	ErrorKind() string
}

// FromError builds a Record for op. The kind comes from the first error in
// err's chain that exposes ErrorKind.
func FromError(op string, err error) Record {
	rec := Record{
		ID:        uuid.New(),
		Operation: op,
		Kind:      UnknownKind,
		Time:      time.Now().UTC(),
	}
	if err == nil {
		return rec
	}
	rec.Message = err.Error()
	var k kinded
	if errors.As(err, &k) {
		rec.Kind = k.ErrorKind()
	}
	return rec
}

// Report sends FromError(op, err) to r. Delivery is detached from ctx's
// cancellation so an aborted operation is still recorded, and is bounded by
// DeliveryTimeout.
func Report(ctx context.Context, r Reporter, op string, err error) {
	if r == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DeliveryTimeout)
	defer cancel()
	r.Report(ctx, FromError(op, err))
}

// Multi fans a record out to every reporter in order.
type Multi []Reporter

func (m Multi) Report(ctx context.Context, rec Record) {
	for _, r := range m {
		if r != nil {
			r.Report(ctx, rec)
		}
	}
}

// Discard drops every record.
var Discard Reporter = ReporterFunc(func(context.Context, Record) {})
