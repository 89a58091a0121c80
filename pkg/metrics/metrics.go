// Package metrics is a thin prometheus facade. Families are registered
// lazily on first use so call sites stay one-liners; the label key set of a
// family is fixed by its first caller.
package metrics

import (
	"io"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

type registry struct {
	mu        sync.Mutex
	reg       *prometheus.Registry
	counters  map[string]*prometheus.CounterVec
	gauges    map[string]*prometheus.GaugeVec
	summaries map[string]*prometheus.SummaryVec
	keys      map[string][]string
}

var defaultRegistry = newRegistry()

func newRegistry() *registry {
	return &registry{
		reg:       prometheus.NewRegistry(),
		counters:  map[string]*prometheus.CounterVec{},
		gauges:    map[string]*prometheus.GaugeVec{},
		summaries: map[string]*prometheus.SummaryVec{},
		keys:      map[string][]string{},
	}
}

// Registry exposes the underlying prometheus registry (monitoring endpoint).
func Registry() *prometheus.Registry {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	return defaultRegistry.reg
}

func labelKeys(labels map[string]string) []string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// values fills missing keys with "" so a family's label arity never changes.
func (r *registry) values(name string, labels map[string]string) []string {
	vals := make([]string, 0, len(r.keys[name]))
	for _, k := range r.keys[name] {
		vals = append(vals, labels[k])
	}
	return vals
}

// Inc increments a counter family by 1.
func Inc(name string, labels map[string]string) {
	r := defaultRegistry
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.counters[name]
	if !ok {
		r.keys[name] = labelKeys(labels)
		c = prometheus.NewCounterVec(prometheus.CounterOpts{Name: name}, r.keys[name])
		r.reg.MustRegister(c)
		r.counters[name] = c
	}
	c.WithLabelValues(r.values(name, labels)...).Inc()
}

// SetGauge sets a gauge family to an absolute value.
func SetGauge(name string, labels map[string]string, v float64) {
	r := defaultRegistry
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.gauges[name]
	if !ok {
		r.keys[name] = labelKeys(labels)
		g = prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name}, r.keys[name])
		r.reg.MustRegister(g)
		r.gauges[name] = g
	}
	g.WithLabelValues(r.values(name, labels)...).Set(v)
}

// AddGauge adds a delta to a gauge family.
func AddGauge(name string, labels map[string]string, v float64) {
	r := defaultRegistry
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.gauges[name]
	if !ok {
		r.keys[name] = labelKeys(labels)
		g = prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name}, r.keys[name])
		r.reg.MustRegister(g)
		r.gauges[name] = g
	}
	g.WithLabelValues(r.values(name, labels)...).Add(v)
}

// ObserveSummary records an observation in a summary family with default
// latency quantiles.
func ObserveSummary(name string, labels map[string]string, v float64) {
	r := defaultRegistry
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.summaries[name]
	if !ok {
		r.keys[name] = labelKeys(labels)
		s = prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Name:       name,
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		}, r.keys[name])
		r.reg.MustRegister(s)
		r.summaries[name] = s
	}
	s.WithLabelValues(r.values(name, labels)...).Observe(v)
}

// Reset drops all registered families. Tests only.
func Reset() {
	r := defaultRegistry
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reg = prometheus.NewRegistry()
	r.counters = map[string]*prometheus.CounterVec{}
	r.gauges = map[string]*prometheus.GaugeVec{}
	r.summaries = map[string]*prometheus.SummaryVec{}
	r.keys = map[string][]string{}
}

// DumpProm writes the current families in the prometheus text format.
func DumpProm(w io.Writer) error {
	mfs, err := Registry().Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
