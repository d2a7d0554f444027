// Package ratelimit paces requests to the collection API.
//
// Available Implementations:
//
// Fixed Delay:
//   - At least a constant gap between two requests, first one immediate
//   - Default, one second between object fetches
//
// Token Bucket:
//   - Fixed capacity bucket that refills after a specified period
//   - Allows short bursts
//
// Sliding Window:
//   - At most N requests in any window of the given size
//
// All limiters implement Limiter. Wait takes a context and returns its
// error when the context is cancelled first, which is how an interrupted
// run stops between objects.
//
//	limiter, err := ratelimit.New(cfg.RateLimit)
//	for _, id := range ids {
//	    if err := limiter.Wait(ctx); err != nil {
//	        return err
//	    }
//	    // fetch id
//	}
package ratelimit
