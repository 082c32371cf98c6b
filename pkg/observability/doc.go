/*
Package observability turns router lifecycle events into logs and Prometheus
metrics.

Both are exposed as domain.LifecycleHooks so they can be merged and passed to
midirelay.WithLifecycleHooks:

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	hooks := observability.LoggingHooks(logger).Merge(metrics.Hooks())
	router := midirelay.New(transport, matching, midirelay.WithLifecycleHooks(hooks))
*/
package observability
