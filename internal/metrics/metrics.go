package metrics

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/i474232898/hko-weather-proxy/internal/weather"
)

// Collector stores process-local proxy counters exported via /metrics.
type Collector struct {
	upstreamAttemptsTotal    atomic.Uint64
	upstreamSuccessTotal     atomic.Uint64
	upstreamFailuresTotal    atomic.Uint64
	upstreamDurationNanos    atomic.Uint64
	cacheHitsTotal           atomic.Uint64
	cacheMissesTotal         atomic.Uint64
	coalescedResultsTotal    atomic.Uint64
	automationPassesTotal    atomic.Uint64
	automationFailuresTotal  atomic.Uint64
	automationLastPassUnixNs atomic.Int64
}

// New creates an empty Collector.
func New() *Collector {
	return &Collector{}
}

// ObserveAttempt records one upstream attempt.
func (c *Collector) ObserveAttempt(e weather.AttemptEvent) {
	c.upstreamAttemptsTotal.Add(1)
	c.upstreamDurationNanos.Add(uint64(e.Elapsed.Nanoseconds()))
	if e.Success() {
		c.upstreamSuccessTotal.Add(1)
	} else {
		c.upstreamFailuresTotal.Add(1)
	}
}

// RecordCacheLookup counts a cache hit or miss.
func (c *Collector) RecordCacheLookup(hit bool) {
	if hit {
		c.cacheHitsTotal.Add(1)
		return
	}
	c.cacheMissesTotal.Add(1)
}

// RecordCoalesced counts a caller that received a shared in-flight result.
func (c *Collector) RecordCoalesced() {
	c.coalescedResultsTotal.Add(1)
}

// RecordAutomationPass counts one finished automation pass and its failed data types.
func (c *Collector) RecordAutomationPass(failures int) {
	c.automationPassesTotal.Add(1)
	if failures > 0 {
		c.automationFailuresTotal.Add(uint64(failures))
	}
	c.automationLastPassUnixNs.Store(time.Now().UnixNano())
}

// Snapshot is a plain copy of the counters.
type Snapshot struct {
	UpstreamAttempts   uint64
	UpstreamSuccesses  uint64
	UpstreamFailures   uint64
	CacheHits          uint64
	CacheMisses        uint64
	CoalescedResults   uint64
	AutomationPasses   uint64
	AutomationFailures uint64
}

// Snapshot returns the current counter values.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		UpstreamAttempts:   c.upstreamAttemptsTotal.Load(),
		UpstreamSuccesses:  c.upstreamSuccessTotal.Load(),
		UpstreamFailures:   c.upstreamFailuresTotal.Load(),
		CacheHits:          c.cacheHitsTotal.Load(),
		CacheMisses:        c.cacheMissesTotal.Load(),
		CoalescedResults:   c.coalescedResultsTotal.Load(),
		AutomationPasses:   c.automationPassesTotal.Load(),
		AutomationFailures: c.automationFailuresTotal.Load(),
	}
}

// RenderPrometheus renders the counters in Prometheus text exposition format.
func (c *Collector) RenderPrometheus() string {
	var b strings.Builder

	writeMetric := func(name, kind, help string, value any) {
		fmt.Fprintf(&b, "# HELP %s %s\n", name, help)
		fmt.Fprintf(&b, "# TYPE %s %s\n", name, kind)
		fmt.Fprintf(&b, "%s %v\n", name, value)
	}

	writeMetric("hko_upstream_attempts_total", "counter", "Upstream HTTP attempts made.", c.upstreamAttemptsTotal.Load())
	writeMetric("hko_upstream_success_total", "counter", "Upstream attempts that returned data.", c.upstreamSuccessTotal.Load())
	writeMetric("hko_upstream_failures_total", "counter", "Upstream attempts that failed.", c.upstreamFailuresTotal.Load())
	writeMetric("hko_upstream_duration_seconds_sum", "counter", "Total time spent in upstream attempts.",
		float64(c.upstreamDurationNanos.Load())/float64(time.Second))
	writeMetric("hko_cache_hits_total", "counter", "Requests served from a fresh cache entry.", c.cacheHitsTotal.Load())
	writeMetric("hko_cache_misses_total", "counter", "Requests that needed an upstream fetch.", c.cacheMissesTotal.Load())
	writeMetric("hko_coalesced_results_total", "counter", "Callers that shared an in-flight upstream fetch.", c.coalescedResultsTotal.Load())
	writeMetric("hko_automation_passes_total", "counter", "Completed automation refresh passes.", c.automationPassesTotal.Load())
	writeMetric("hko_automation_failures_total", "counter", "Data types that failed during automation passes.", c.automationFailuresTotal.Load())

	lastPass := 0.0
	if ns := c.automationLastPassUnixNs.Load(); ns > 0 {
		lastPass = float64(ns) / float64(time.Second)
	}
	writeMetric("hko_automation_last_pass_timestamp_seconds", "gauge", "Unix time of the last automation pass.", lastPass)

	return b.String()
}
