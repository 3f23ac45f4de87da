package perf

import (
	"sync"
	"testing"
	"time"
)

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func TestSnapshot_GroupsByKind(t *testing.T) {
	c := NewCollector(100)
	now := time.Now()

	c.Record(Entry{Kind: KindRequest, Name: "GET /api/athletes", Status: 200, Duration: ms(10), At: now})
	c.Record(Entry{Kind: KindRequest, Name: "GET /api/athletes", Status: 200, Duration: ms(30), At: now})
	c.Record(Entry{Kind: KindRequest, Name: "POST /api/digest", Status: 503, Duration: ms(5), At: now})
	c.Record(Entry{Kind: KindQuery, Name: "SELECT files", Duration: ms(2), At: now})
	c.Record(Entry{Kind: KindFile, Name: "files.Download", Duration: ms(40), At: now, Failed: true})

	snap := c.Snapshot(now.Add(-time.Minute), 10)
	if snap.TotalRecorded != 5 || snap.TotalRequests != 3 {
		t.Errorf("totals = %d recorded, %d requests; want 5, 3", snap.TotalRecorded, snap.TotalRequests)
	}
	if snap.ServerErrors != 1 {
		t.Errorf("ServerErrors = %d, want 1", snap.ServerErrors)
	}
	if len(snap.Routes) != 2 || snap.Routes[0].Name != "GET /api/athletes" || snap.Routes[0].AvgMs != 20 {
		t.Fatalf("Routes = %+v, want athletes first at 20ms", snap.Routes)
	}
	if len(snap.Queries) != 1 || snap.Queries[0].Name != "SELECT files" {
		t.Errorf("Queries = %+v", snap.Queries)
	}
	if len(snap.FileCalls) != 1 || snap.FileCalls[0].Failures != 1 || snap.FileCalls[0].MaxMs != 40 {
		t.Errorf("FileCalls = %+v", snap.FileCalls)
	}
}

func TestCollector_RingOverwritesOldest(t *testing.T) {
	c := NewCollector(3)
	now := time.Now()
	for i := range 5 {
		c.Record(Entry{Kind: KindRequest, Name: "GET /api/dashboard", Duration: ms(i), At: now})
	}

	if c.TotalRecorded() != 5 {
		t.Errorf("TotalRecorded = %d, want 5", c.TotalRecorded())
	}
	snap := c.Snapshot(now.Add(-time.Minute), 10)
	if len(snap.Routes) != 1 || snap.Routes[0].Count != 3 {
		t.Fatalf("Routes = %+v, want the last 3 entries", snap.Routes)
	}
	if snap.Routes[0].AvgMs != 3 {
		t.Errorf("AvgMs = %v, want 3 (entries 2, 3 and 4)", snap.Routes[0].AvgMs)
	}
}

func TestSnapshot_Percentiles(t *testing.T) {
	c := NewCollector(200)
	now := time.Now()
	for i := 1; i <= 100; i++ {
		c.Record(Entry{Kind: KindRequest, Name: "GET /api/attendance/week", Duration: ms(i), At: now})
	}

	got := c.Snapshot(now.Add(-time.Minute), 10).Requests
	want := Latency{Count: 100, P50Ms: 50, P95Ms: 95, P99Ms: 99}
	if got != want {
		t.Errorf("Requests = %+v, want %+v", got, want)
	}
}

func TestSnapshot_Window(t *testing.T) {
	c := NewCollector(100)
	now := time.Now()
	c.Record(Entry{Kind: KindRequest, Name: "GET /api/plans", Duration: ms(100), At: now.Add(-2 * time.Hour)})
	c.Record(Entry{Kind: KindRequest, Name: "GET /api/logs", Duration: ms(10), At: now})

	snap := c.Snapshot(now.Add(-time.Hour), 10)
	if len(snap.Routes) != 1 || snap.Routes[0].Name != "GET /api/logs" {
		t.Errorf("Routes = %+v, want only the recent entry", snap.Routes)
	}
	if snap.Requests.Count != 1 {
		t.Errorf("Requests.Count = %d, want 1", snap.Requests.Count)
	}
}

func TestSnapshot_TopN(t *testing.T) {
	c := NewCollector(10)
	now := time.Now()
	for i, name := range []string{"files.List", "files.Get", "files.Upload"} {
		c.Record(Entry{Kind: KindFile, Name: name, Duration: ms(i + 1), At: now})
	}
	got := c.Snapshot(now.Add(-time.Minute), 2).FileCalls
	if len(got) != 2 || got[0].Name != "files.Upload" || got[1].Name != "files.Get" {
		t.Errorf("FileCalls = %+v, want Upload then Get", got)
	}
}

func TestCollector_NilIsSafe(t *testing.T) {
	var c *Collector
	start := time.Now().Add(-ms(5))
	if d := c.Observe(KindFile, "files.Get", start, 0, false); d < ms(5) {
		t.Errorf("Observe returned %v, want at least 5ms", d)
	}
	if c.TotalRecorded() != 0 {
		t.Error("nil collector should report zero")
	}
}

func TestCollector_ConcurrentWrites(t *testing.T) {
	c := NewCollector(1000)
	now := time.Now()
	var wg sync.WaitGroup
	for n := range 100 {
		wg.Go(func() {
			for range 10 {
				c.Record(Entry{Kind: KindRequest, Name: "POST /api/attendance/mark", Duration: ms(n), At: now})
			}
		})
	}
	wg.Wait()
	if c.TotalRecorded() != 1000 {
		t.Errorf("TotalRecorded = %d, want 1000", c.TotalRecorded())
	}
}

func BenchmarkRecord(b *testing.B) {
	c := NewCollector(DefaultRingSize)
	e := Entry{Kind: KindRequest, Name: "GET /bench", Status: 200, Duration: ms(1), At: time.Now()}
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			c.Record(e)
		}
	})
}

func BenchmarkSnapshot(b *testing.B) {
	c := NewCollector(DefaultRingSize)
	now := time.Now()
	for i := range DefaultRingSize {
		c.Record(Entry{Kind: KindRequest, Name: "GET /bench", Status: 200, Duration: ms(i % 100), At: now})
	}
	since := now.Add(-time.Hour)
	b.ReportAllocs()
	for b.Loop() {
		c.Snapshot(since, 10)
	}
}
