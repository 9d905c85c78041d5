// Allocates TCP connections per origin, enforces a per-origin
// concurrency cap, and matches warm/cold connections to observed reuse
// (C4). Grounded on sim/cluster/simulator.go's resource-pool-per-entity
// acquire/release discipline.

package lantern

import (
	"sort"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

// ConnectionsPerOrigin is the default per-origin connection cap.
const ConnectionsPerOrigin = 6

// ConnectionPool owns a pool of TCPConnection objects per origin and
// lends them to requests for the duration of the simulation.
type ConnectionPool struct {
	byOrigin map[string][]*TCPConnection
	bound    map[string]*TCPConnection // requestID -> bound connection
	inUse    map[*TCPConnection]bool
	rttByOrigin           map[string]float64
	serverLatencyByOrigin map[string]float64
	throughputBps         float64
}

// NewConnectionPool sizes a connection set per origin to
// max(count-needing-fresh-connection, ConnectionsPerOrigin), cloning
// extra connections from the first. Fresh/reused classification for
// sizing uses the inferred reuse map (force_coarse semantics), not
// necessarily the record's own flag. baseRTTMs + additionalRTTByOrigin
// and serverResponseByOrigin are the simulator-config per-origin network
// conditions (§4.7): these may come from NetworkAnalysis, or be supplied
// directly by the caller for "provided"/synthetic throttling.
func NewConnectionPool(records []*NetworkRequest, baseRTTMs float64, additionalRTTByOrigin, serverResponseByOrigin map[string]float64, throughputBps float64) *ConnectionPool {
	p := &ConnectionPool{
		byOrigin:              make(map[string][]*TCPConnection),
		bound:                 make(map[string]*TCPConnection),
		inUse:                 make(map[*TCPConnection]bool),
		rttByOrigin:           make(map[string]float64),
		serverLatencyByOrigin: make(map[string]float64),
		throughputBps:         throughputBps,
	}

	reused := inferConnectionReuse(records)
	byOrigin := make(map[string][]*NetworkRequest)
	for _, r := range records {
		byOrigin[r.Origin()] = append(byOrigin[r.Origin()], r)
	}

	for origin, reqs := range byOrigin {
		rtt := baseRTTMs + additionalRTTByOrigin[origin]
		serverLatency := serverResponseByOrigin[origin]
		p.rttByOrigin[origin] = rtt
		p.serverLatencyByOrigin[origin] = serverLatency

		freshCount := 0
		for _, r := range reqs {
			if !reused[r.RequestID] {
				freshCount++
			}
		}
		size := freshCount
		if size < ConnectionsPerOrigin {
			size = ConnectionsPerOrigin
		}
		if size < 1 {
			size = 1
		}

		ssl := reqs[0].IsSecure()
		h2 := reqs[0].Protocol == "h2"
		first := NewTCPConnection(rtt, throughputBps, serverLatency, ssl, h2)
		conns := make([]*TCPConnection, size)
		conns[0] = first
		for i := 1; i < size; i++ {
			conns[i] = first.Clone()
		}
		p.byOrigin[origin] = conns
	}

	return p
}

// AcquireOptions configures one Acquire call.
type AcquireOptions struct {
	IgnoreConnectionReused bool // flexible_ordering mode
}

// Acquire binds a connection to record, exclusively, until Release is
// called for the same record. Returns nil if no matching idle connection
// is available for the record's origin.
func (p *ConnectionPool) Acquire(record *NetworkRequest, opts AcquireOptions) *TCPConnection {
	if c, ok := p.bound[record.RequestID]; ok {
		return c
	}

	conns := p.byOrigin[record.Origin()]
	var idle []*TCPConnection
	for _, c := range conns {
		if !p.inUse[c] {
			idle = append(idle, c)
		}
	}
	if len(idle) == 0 {
		return nil
	}

	sort.Slice(idle, func(i, j int) bool {
		return idle[i].CongestionWindow > idle[j].CongestionWindow
	})

	var chosen *TCPConnection
	if opts.IgnoreConnectionReused {
		chosen = idle[0] // warmest
	} else {
		wantWarm := record.ConnectionReused
		for _, c := range idle {
			if c.Warmed == wantWarm {
				chosen = c
				break
			}
		}
	}
	if chosen == nil {
		return nil
	}

	p.inUse[chosen] = true
	p.bound[record.RequestID] = chosen
	return chosen
}

// Release frees the connection bound to record for reuse by others.
func (p *ConnectionPool) Release(record *NetworkRequest) {
	c, ok := p.bound[record.RequestID]
	if !ok {
		return
	}
	delete(p.inUse, c)
	delete(p.bound, record.RequestID)
}

// RTTForOrigin returns the configured RTT (base + per-origin additional)
// used to size this origin's connections.
func (p *ConnectionPool) RTTForOrigin(origin string) float64 {
	return p.rttByOrigin[origin]
}

// InUseCount returns the number of connections currently on loan.
func (p *ConnectionPool) InUseCount() int {
	return len(p.inUse)
}

// SetThroughputPerConnection redistributes total_throughput /
// |in_progress| across every connection currently on loan (C8 §4.7 step c).
func (p *ConnectionPool) SetThroughputPerConnection(totalThroughputBps float64, inProgressCount int) {
	if inProgressCount <= 0 {
		return
	}
	per := totalThroughputBps / float64(inProgressCount)
	for c := range p.inUse {
		c.SetThroughput(per)
	}
	logrus.Debugf("connection pool: %d in use, %.0f bps each, %.0f total congestion window", len(p.inUse), per, sumCongestionWindows(p.inUse))
}

// sumCongestionWindows totals the congestion window across a set of
// connections, used only for the debug line above.
func sumCongestionWindows(conns map[*TCPConnection]bool) float64 {
	windows := make([]float64, 0, len(conns))
	for c := range conns {
		windows = append(windows, float64(c.CongestionWindow))
	}
	return floats.Sum(windows)
}
