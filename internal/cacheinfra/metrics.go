package cacheinfra

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts cache traffic.
type Metrics struct {
	Hits    prometheus.Counter
	Misses  prometheus.Counter
	Sets    prometheus.Counter
	Deletes prometheus.Counter
}

// NewMetrics builds the counters and registers them with reg when it is not nil.
// Counters already registered under the same name are reused.
func NewMetrics(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Hits:    newCounter(namespace, "cache_hits_total", "Cache lookups served from the cache."),
		Misses:  newCounter(namespace, "cache_misses_total", "Cache lookups that fell through to the store."),
		Sets:    newCounter(namespace, "cache_sets_total", "Entries written to the cache."),
		Deletes: newCounter(namespace, "cache_deletes_total", "Entries removed from the cache."),
	}
	if reg == nil {
		return m, nil
	}

	for _, c := range []*prometheus.Counter{&m.Hits, &m.Misses, &m.Sets, &m.Deletes} {
		if err := reg.Register(*c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				return nil, err
			}
			existing, ok := already.ExistingCollector.(prometheus.Counter)
			if !ok {
				return nil, err
			}
			*c = existing
		}
	}
	return m, nil
}

func newCounter(namespace, name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	})
}
