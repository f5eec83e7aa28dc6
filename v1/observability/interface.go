package observability

import "time"

// OperationContext describes one finished operation.
type OperationContext struct {
	// Component is the reporting package, e.g. "access".
	Component string

	// Operation is the operation kind, e.g. "query", "insert", "page".
	Operation string

	// Resource is the primary resource touched, usually a table name.
	Resource string

	// SubResource carries extra context such as the resolved action or procedure name.
	SubResource string

	// Duration is the wall time of the operation.
	Duration time.Duration

	// Error is the error the operation finished with, or nil.
	Error error

	// Size is the number of rows read or affected.
	Size int64

	// Metadata holds optional free-form attributes.
	Metadata map[string]interface{}
}

// Observer receives operation reports.
type Observer interface {
	ObserveOperation(ctx OperationContext)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx OperationContext)

// ObserveOperation calls f(ctx).
func (f ObserverFunc) ObserveOperation(ctx OperationContext) {
	f(ctx)
}

// Multi fans a report out to several observers. Nil entries are skipped.
func Multi(observers ...Observer) Observer {
	out := make(multiObserver, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}

type multiObserver []Observer

func (m multiObserver) ObserveOperation(ctx OperationContext) {
	for _, o := range m {
		o.ObserveOperation(ctx)
	}
}
