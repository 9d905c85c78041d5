// One TCP (optionally TLS, optionally H2) connection: handshake cost,
// congestion-window growth, and bandwidth-limited segment delivery (C2).

package lantern

import "math"

const (
	// InitialCongestionWindow is the number of segments a fresh TCP
	// connection may have in flight before any RTT has elapsed.
	InitialCongestionWindow = 10
	// TCPSegmentSize is the assumed size of one TCP segment, in bytes.
	TCPSegmentSize = 1460
)

// TCPConnection models one TCP connection's throughput/latency behavior.
type TCPConnection struct {
	RTTMs           float64
	ThroughputBps   float64
	ServerLatencyMs float64
	SSL             bool
	H2              bool
	Warmed          bool

	CongestionWindow int64 // segments
	H2OverflowBytes  int64
}

// NewTCPConnection constructs a cold connection with the given network
// parameters and InitialCongestionWindow segments.
func NewTCPConnection(rttMs, throughputBps, serverLatencyMs float64, ssl, h2 bool) *TCPConnection {
	return &TCPConnection{
		RTTMs:            rttMs,
		ThroughputBps:    throughputBps,
		ServerLatencyMs:  serverLatencyMs,
		SSL:              ssl,
		H2:               h2,
		CongestionWindow: InitialCongestionWindow,
	}
}

// Clone duplicates the connection's full state.
func (c *TCPConnection) Clone() *TCPConnection {
	cp := *c
	return &cp
}

func (c *TCPConnection) SetThroughput(bps float64)     { c.ThroughputBps = bps }
func (c *TCPConnection) SetCongestionWindow(cwnd int64) { c.CongestionWindow = cwnd }
func (c *TCPConnection) SetWarmed(warmed bool)          { c.Warmed = warmed }

// SetH2OverflowBytesDownloaded is a no-op on non-H2 connections.
func (c *TCPConnection) SetH2OverflowBytesDownloaded(bytes int64) {
	if !c.H2 {
		return
	}
	c.H2OverflowBytes = bytes
}

// MaximumSaturatedConnections returns the largest number of connections
// that can simultaneously saturate the given throughput at the given RTT.
func MaximumSaturatedConnections(rttMs, throughputBps float64) int64 {
	if rttMs <= 0 {
		return math.MaxInt64
	}
	segmentsPerSecond := 1000.0 / rttMs
	bytesPerSecondPerConn := segmentsPerSecond * TCPSegmentSize * 8
	if bytesPerSecondPerConn <= 0 {
		return math.MaxInt64
	}
	return int64(math.Floor(throughputBps / bytesPerSecondPerConn))
}

// DownloadResult reports one simulate_download_until invocation's effect.
type DownloadResult struct {
	RoundTrips           int
	TimeElapsedMs        float64
	BytesDownloaded      int64
	ExtraBytesDownloaded int64
	CongestionWindow     int64
}

// DownloadOptions configures one SimulateDownloadUntil call.
type DownloadOptions struct {
	TimeAlreadyElapsedMs float64
	MaximumTimeToElapseMs float64 // math.Inf(1) for unbounded
	DNSResolutionTimeMs  float64
}

// SimulateDownloadUntil advances the connection's delivery of
// bytesToDownload bytes by at most MaximumTimeToElapseMs of additional
// wall-clock time, following the RTT-doubling congestion-window growth
// model in spec.md §4.1.
func (c *TCPConnection) SimulateDownloadUntil(bytesToDownload int64, opts DownloadOptions) DownloadResult {
	oneWayLatency := c.RTTMs / 2
	twoWayLatency := c.RTTMs

	// 1. Pre-credit H2 overflow bytes against the requested amount.
	if c.Warmed && c.H2 && c.H2OverflowBytes > 0 {
		credit := min64(c.H2OverflowBytes, bytesToDownload)
		bytesToDownload -= credit
		c.H2OverflowBytes -= credit
	}

	// 2. Max congestion window the link's bandwidth-delay product allows.
	maxCwndSegments := int64(math.Floor((c.ThroughputBps / 8 * c.RTTMs / 1000) / TCPSegmentSize))
	if maxCwndSegments < 1 {
		maxCwndSegments = 1
	}

	// 3. Handshake + request cost.
	var handshakeAndRequest float64
	if c.Warmed {
		handshakeAndRequest = oneWayLatency
	} else {
		handshakeAndRequest = opts.DNSResolutionTimeMs + 3*oneWayLatency
		if c.SSL {
			handshakeAndRequest += twoWayLatency // TLS False Start: one extra RT, not two
		}
	}

	// 4. Time to first byte.
	ttfb := handshakeAndRequest + c.ServerLatencyMs + oneWayLatency
	if c.Warmed && c.H2 {
		ttfb = 0
	}

	// 5. Budget bookkeeping.
	timeElapsedForTTFB := math.Max(ttfb-opts.TimeAlreadyElapsedMs, 0)
	remainingBudget := opts.MaximumTimeToElapseMs - timeElapsedForTTFB

	result := DownloadResult{CongestionWindow: c.CongestionWindow}
	timeElapsed := timeElapsedForTTFB
	var bytesDownloaded int64
	roundTrips := 0

	cwnd := min64(c.CongestionWindow, maxCwndSegments)
	if timeElapsedForTTFB > 0 {
		// 6. First RTT's worth of segments delivered as soon as TTFB lands.
		bytesDownloaded += cwnd * TCPSegmentSize
		roundTrips++
	}

	// 7. Congestion-window-doubling delivery loop.
	for bytesDownloaded < bytesToDownload && timeElapsed-timeElapsedForTTFB <= remainingBudget {
		timeElapsed += twoWayLatency
		roundTrips++
		cwnd = min64(cwnd*2, maxCwndSegments)
		bytesDownloaded += cwnd * TCPSegmentSize
	}

	result.RoundTrips = roundTrips
	result.TimeElapsedMs = timeElapsed
	if bytesDownloaded > bytesToDownload {
		result.ExtraBytesDownloaded = bytesDownloaded - bytesToDownload
		bytesDownloaded = bytesToDownload
	}
	result.BytesDownloaded = bytesDownloaded
	result.CongestionWindow = cwnd

	c.CongestionWindow = cwnd
	return result
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
