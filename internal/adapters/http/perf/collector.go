// Package perf keeps a rolling window of request, file backend and SQL
// timings for the /api/perf report.
package perf

import (
	"cmp"
	"math"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultRingSize is the number of entries kept before the oldest are
// overwritten.
const DefaultRingSize = 10000

// Kind groups entries in the report.
type Kind string

const (
	KindRequest Kind = "request"
	KindFile    Kind = "file"
	KindQuery   Kind = "query"
)

// Entry is one timed operation.
type Entry struct {
	Kind     Kind
	Name     string // route pattern, "files.Method" or SQL verb and table
	Status   int    // HTTP status, zero outside requests
	Failed   bool
	Duration time.Duration
	At       time.Time
}

// Collector is a fixed-size ring of entries. Recording copies one struct
// under the lock; aggregation happens in Snapshot.
type Collector struct {
	mu       sync.Mutex
	ring     []Entry
	next     int
	total    atomic.Int64
	requests atomic.Int64
}

// NewCollector returns a collector holding the last size entries.
func NewCollector(size int) *Collector {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &Collector{ring: make([]Entry, size)}
}

// Record stores e. A nil collector drops it.
func (c *Collector) Record(e Entry) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.ring[c.next] = e
	c.next = (c.next + 1) % len(c.ring)
	c.mu.Unlock()

	c.total.Add(1)
	if e.Kind == KindRequest {
		c.requests.Add(1)
	}
}

// Observe records the operation that began at start and returns its
// duration, so callers can log with the same figure.
func (c *Collector) Observe(kind Kind, name string, start time.Time, status int, failed bool) time.Duration {
	d := time.Since(start)
	c.Record(Entry{Kind: kind, Name: name, Status: status, Failed: failed, Duration: d, At: start})
	return d
}

// TotalRecorded returns the number of entries ever recorded.
func (c *Collector) TotalRecorded() int64 {
	if c == nil {
		return 0
	}
	return c.total.Load()
}

// Snapshot is the aggregated report.
type Snapshot struct {
	Since         time.Time `json:"since"`
	TotalRecorded int64     `json:"totalRecorded"`
	TotalRequests int64     `json:"totalRequests"`
	Requests      Latency   `json:"requests"`
	ServerErrors  int       `json:"serverErrors"`
	Routes        []Stat    `json:"routes"`
	FileCalls     []Stat    `json:"fileCalls"`
	Queries       []Stat    `json:"queries"`
}

// Latency summarises request durations inside the window.
type Latency struct {
	Count int     `json:"count"`
	P50Ms float64 `json:"p50Ms"`
	P95Ms float64 `json:"p95Ms"`
	P99Ms float64 `json:"p99Ms"`
}

// Stat aggregates the entries sharing one name.
type Stat struct {
	Name     string  `json:"name"`
	Count    int     `json:"count"`
	Failures int     `json:"failures"`
	AvgMs    float64 `json:"avgMs"`
	MaxMs    float64 `json:"maxMs"`
	TotalMs  float64 `json:"totalMs"`
}

// Snapshot aggregates entries recorded at or after since. Each list holds
// the topN slowest names by average duration.
func (c *Collector) Snapshot(since time.Time, topN int) Snapshot {
	c.mu.Lock()
	buf := slices.Clone(c.ring)
	c.mu.Unlock()

	stats := map[Kind]map[string]*Stat{
		KindRequest: {},
		KindFile:    {},
		KindQuery:   {},
	}
	var durations []time.Duration
	snap := Snapshot{
		Since:         since,
		TotalRecorded: c.total.Load(),
		TotalRequests: c.requests.Load(),
	}
	for _, e := range buf {
		if e.At.IsZero() || e.At.Before(since) {
			continue
		}
		byName, ok := stats[e.Kind]
		if !ok {
			continue
		}
		s := byName[e.Name]
		if s == nil {
			s = &Stat{Name: e.Name}
			byName[e.Name] = s
		}
		ms := millis(e.Duration)
		s.Count++
		s.TotalMs += ms
		s.MaxMs = max(s.MaxMs, ms)
		if e.Failed {
			s.Failures++
		}
		if e.Kind == KindRequest {
			durations = append(durations, e.Duration)
			if e.Status >= 500 {
				snap.ServerErrors++
			}
		}
	}

	snap.Requests = latency(durations)
	snap.Routes = slowest(stats[KindRequest], topN)
	snap.FileCalls = slowest(stats[KindFile], topN)
	snap.Queries = slowest(stats[KindQuery], topN)
	return snap
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

// latency uses nearest-rank percentiles.
func latency(ds []time.Duration) Latency {
	if len(ds) == 0 {
		return Latency{}
	}
	slices.Sort(ds)
	rank := func(p float64) float64 {
		i := int(math.Ceil(p/100*float64(len(ds)))) - 1
		return millis(ds[max(i, 0)])
	}
	return Latency{Count: len(ds), P50Ms: rank(50), P95Ms: rank(95), P99Ms: rank(99)}
}

func slowest(byName map[string]*Stat, n int) []Stat {
	list := make([]Stat, 0, len(byName))
	for _, s := range byName {
		s.AvgMs = s.TotalMs / float64(s.Count)
		list = append(list, *s)
	}
	slices.SortFunc(list, func(a, b Stat) int {
		if c := cmp.Compare(b.AvgMs, a.AvgMs); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	if n > 0 && len(list) > n {
		list = list[:n]
	}
	return list
}
