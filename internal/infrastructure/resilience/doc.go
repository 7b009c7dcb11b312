/*
Package resilience provides a circuit breaker for background fetches.

# Overview

The blocklist refresher pulls large hosts files from remote sources on a
timer. A source that starts failing should not be hammered every interval;
the breaker rejects calls outright until a probe succeeds.

# Usage

	breaker := resilience.New("blocklist", resilience.Settings{
		Timeout: 5 * time.Minute,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})

	err := breaker.Do(func() error {
		return fetchList(ctx)
	})

# States

	Closed --[failures]-> Open --[timeout]-> Half-Open --[probe ok]-> Closed
	                                             |
	                                        [probe fails]
	                                             |
	                                             v
	                                           Open

Closed passes calls through and counts failures. Open rejects immediately
with ErrCircuitOpen. Half-Open admits a bounded number of probes.
*/
package resilience
