// Package ratelimit implements a fixed-window request counter keyed by client
// identity.
//
// A Limiter allows the first Limit requests a client makes within a window
// and rejects the rest until the window elapses. Counting is delegated to a
// Store; MemoryStore keeps records in process and RedisStore shares them
// across every instance pointed at the same Redis.
//
//	lim, err := ratelimit.New(100, time.Hour)
//	d, err := lim.Check(ctx, clientIP)
//	if !d.Allowed {
//	    // reject with 429
//	}
package ratelimit
