// Copyright 2024 The Cockroach Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics exports the shape of entryset sets to Prometheus.
package metrics

import (
	"sync"

	"github.com/cockroachdb/entryset"
	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "entryset"

// StatsSource is implemented by *entryset.Set.
type StatsSource interface {
	Stats() entryset.Stats
}

// Collector is a prometheus.Collector reporting the Stats of a single set.
// Collection happens on the scraping goroutine, so the set must either be
// read-only or guarded by the Locker passed to NewCollector.
type Collector struct {
	source StatsSource
	mu     sync.Locker

	entries   *prom.Desc
	capacity  *prom.Desc
	highWater *prom.Desc
	free      *prom.Desc
	version   *prom.Desc
	grows     *prom.Desc
	trims     *prom.Desc
	readOnly  *prom.Desc
}

var _ prom.Collector = (*Collector)(nil)

// NewCollector returns a Collector for source, labelled with set=name. If mu
// is non-nil it is held while the stats are read.
func NewCollector(name string, source StatsSource, mu sync.Locker) *Collector {
	labels := prom.Labels{"set": name}
	desc := func(metric, help string) *prom.Desc {
		return prom.NewDesc(prom.BuildFQName(namespace, "", metric), help, nil, labels)
	}
	return &Collector{
		source:    source,
		mu:        mu,
		entries:   desc("entries", "Number of live entries in the set."),
		capacity:  desc("capacity_slots", "Number of allocated slots."),
		highWater: desc("high_water_slots", "Number of slots handed out since the last reset."),
		free:      desc("free_slots", "Number of slots on the free list."),
		version:   desc("version", "Structural modification counter."),
		grows:     desc("grows_total", "Number of times the table grew."),
		trims:     desc("trims_total", "Number of times the table was trimmed."),
		readOnly:  desc("read_only", "1 if the set is read-only."),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prom.Desc) {
	ch <- c.entries
	ch <- c.capacity
	ch <- c.highWater
	ch <- c.free
	ch <- c.version
	ch <- c.grows
	ch <- c.trims
	ch <- c.readOnly
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prom.Metric) {
	if c.mu != nil {
		c.mu.Lock()
	}
	st := c.source.Stats()
	if c.mu != nil {
		c.mu.Unlock()
	}

	var readOnly float64
	if st.ReadOnly {
		readOnly = 1
	}
	ch <- prom.MustNewConstMetric(c.entries, prom.GaugeValue, float64(st.Len))
	ch <- prom.MustNewConstMetric(c.capacity, prom.GaugeValue, float64(st.Capacity))
	ch <- prom.MustNewConstMetric(c.highWater, prom.GaugeValue, float64(st.HighWater))
	ch <- prom.MustNewConstMetric(c.free, prom.GaugeValue, float64(st.Free))
	ch <- prom.MustNewConstMetric(c.version, prom.GaugeValue, float64(st.Version))
	ch <- prom.MustNewConstMetric(c.grows, prom.CounterValue, float64(st.Grows))
	ch <- prom.MustNewConstMetric(c.trims, prom.CounterValue, float64(st.Trims))
	ch <- prom.MustNewConstMetric(c.readOnly, prom.GaugeValue, readOnly)
}
