/*
Package observability provides Prometheus instrumentation for collections.

Metrics are opt-in: a collection created without them records nothing. Pass a
registry to NewMetrics and hand the result to the collection:

	reg := prometheus.NewRegistry()
	users, err := warehouse.New("users", s, warehouse.WithMetrics(observability.NewMetrics(reg)))
*/
package observability
