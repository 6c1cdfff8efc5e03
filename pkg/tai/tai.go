// Package tai implements the leap-second-safe monotonic time base used for
// every consensus-critical timestamp in Hourcoin. UTC is
// accepted only at the boundary with external oracles; everything inside
// the consensus core works in TAI milliseconds.
package tai

import (
	"sort"
	"time"
)

// leapEntry pairs an IERS leap second announcement with the cumulative
// TAI-UTC offset that takes effect at utcThresholdSeconds (UTC seconds
// since the Unix epoch).
type leapEntry struct {
	utcThresholdSeconds int64
	offsetSeconds        int64
}

// leapTable is the compiled, sorted table of leap seconds from 1972-01-01
// through the latest IERS bulletin. It is process-wide immutable state,
// initialized once at package load.
//
// The initial offset of 10s on 1972-01-01 and each subsequent +1s step
// matches the IERS leap second bulletins; the final entry (37s, effective
// 2017-01-01) is the most recent leap second as of this writing.
var leapTable = []leapEntry{
	{utcThresholdSeconds: mustUnix(1972, 1, 1), offsetSeconds: 10},
	{utcThresholdSeconds: mustUnix(1972, 7, 1), offsetSeconds: 11},
	{utcThresholdSeconds: mustUnix(1973, 1, 1), offsetSeconds: 12},
	{utcThresholdSeconds: mustUnix(1974, 1, 1), offsetSeconds: 13},
	{utcThresholdSeconds: mustUnix(1975, 1, 1), offsetSeconds: 14},
	{utcThresholdSeconds: mustUnix(1976, 1, 1), offsetSeconds: 15},
	{utcThresholdSeconds: mustUnix(1977, 1, 1), offsetSeconds: 16},
	{utcThresholdSeconds: mustUnix(1978, 1, 1), offsetSeconds: 17},
	{utcThresholdSeconds: mustUnix(1979, 1, 1), offsetSeconds: 18},
	{utcThresholdSeconds: mustUnix(1980, 1, 1), offsetSeconds: 19},
	{utcThresholdSeconds: mustUnix(1981, 7, 1), offsetSeconds: 20},
	{utcThresholdSeconds: mustUnix(1982, 7, 1), offsetSeconds: 21},
	{utcThresholdSeconds: mustUnix(1983, 7, 1), offsetSeconds: 22},
	{utcThresholdSeconds: mustUnix(1985, 7, 1), offsetSeconds: 23},
	{utcThresholdSeconds: mustUnix(1988, 1, 1), offsetSeconds: 24},
	{utcThresholdSeconds: mustUnix(1990, 1, 1), offsetSeconds: 25},
	{utcThresholdSeconds: mustUnix(1991, 1, 1), offsetSeconds: 26},
	{utcThresholdSeconds: mustUnix(1992, 7, 1), offsetSeconds: 27},
	{utcThresholdSeconds: mustUnix(1993, 7, 1), offsetSeconds: 28},
	{utcThresholdSeconds: mustUnix(1994, 7, 1), offsetSeconds: 29},
	{utcThresholdSeconds: mustUnix(1996, 1, 1), offsetSeconds: 30},
	{utcThresholdSeconds: mustUnix(1997, 7, 1), offsetSeconds: 31},
	{utcThresholdSeconds: mustUnix(1999, 1, 1), offsetSeconds: 32},
	{utcThresholdSeconds: mustUnix(2006, 1, 1), offsetSeconds: 33},
	{utcThresholdSeconds: mustUnix(2009, 1, 1), offsetSeconds: 34},
	{utcThresholdSeconds: mustUnix(2012, 7, 1), offsetSeconds: 35},
	{utcThresholdSeconds: mustUnix(2015, 7, 1), offsetSeconds: 36},
	{utcThresholdSeconds: mustUnix(2017, 1, 1), offsetSeconds: 37},
}

func mustUnix(year int, month time.Month, day int) int64 {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Unix()
}

// offsetForUTCSeconds returns the TAI-UTC offset, in seconds, in effect at
// utcSeconds. UTC inputs before the table's first entry (1972) resolve to
// an offset of 0; this is a documented limitation.
func offsetForUTCSeconds(utcSeconds int64) int64 {
	idx := sort.Search(len(leapTable), func(i int) bool {
		return leapTable[i].utcThresholdSeconds > utcSeconds
	})
	if idx == 0 {
		return 0
	}
	return leapTable[idx-1].offsetSeconds
}

// UTCToTAIMs converts a UTC millisecond timestamp to TAI milliseconds:
// tai = utcMs + 1000 * offsetForUTCSeconds(utcMs/1000).
func UTCToTAIMs(utcMs int64) int64 {
	offset := offsetForUTCSeconds(utcMs / 1000)
	return utcMs + 1000*offset
}

// TAIToUTCMs is the inverse of UTCToTAIMs, used for display only. It scans the leap table using TAI-adjusted thresholds, since the
// table itself is indexed by UTC.
func TAIToUTCMs(taiMs int64) int64 {
	// A TAI instant t corresponds to utc = t - 1000*offset(utc). Find the
	// table entry whose TAI-shifted threshold (utcThreshold + 1000*offset)
	// is the latest one not exceeding t.
	idx := sort.Search(len(leapTable), func(i int) bool {
		e := leapTable[i]
		return e.utcThresholdSeconds*1000+1000*e.offsetSeconds > taiMs
	})
	if idx == 0 {
		return taiMs
	}
	return taiMs - 1000*leapTable[idx-1].offsetSeconds
}

// Clock returns TAI milliseconds from a time source. SystemClock is the
// implementation in this package: it reads UTC and calls UTCToTAIMs.
type Clock interface {
	NowTAIMs() int64
}

// SystemClock is the default Clock, reading the local system clock as
// UTC and mapping it through the leap table.
type SystemClock struct{}

// NowTAIMs reads the system clock as UTC milliseconds and converts to TAI.
func (SystemClock) NowTAIMs() int64 {
	return UTCToTAIMs(time.Now().UnixMilli())
}

// NowTAIMs is the package-level convenience wrapper around SystemClock,
// used wherever a caller just needs "now" without injecting a Clock.
func NowTAIMs() int64 {
	return SystemClock{}.NowTAIMs()
}

// ValidateOrdering reports whether curr is strictly after prev, the rule
// required between any two consecutive block timestamps.
func ValidateOrdering(prev, curr int64) bool {
	return curr > prev
}
