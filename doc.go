// Package gomatch provides a matchmaking queue that releases participants in
// fixed-size batches, plus the concurrency plumbing around it.
//
// The main components include:
//
//   - Queue: a lock-guarded waiting list; the Join that fills it takes the whole batch
//   - Matcher: the same contract served by a single goroutine that owns the waiting list
//   - Reader: A goroutine wrapper that turns a producer function or iter.Seq into a channel, with error signaling via ClosedChan()
//   - Mapper: Transform and/or filter data between channels
//   - Pipe: Connect a reader and writer channel with identity transform
//   - FanIn: Merge multiple input channels into a single output channel
//   - CancelFlag: a cooperative stop signal checked by workers between steps
//   - Stats: counters owned by the service rather than the package
//   - Service: worker goroutines that feed arrivals into a Queue or Matcher and hand batches to a SessionStarter
//
// A Queue whose lock was held by a goroutine that panicked is poisoned: every
// later call fails with ErrLockPoisoned instead of working on a waiting list
// that may have lost or duplicated participants.
package gomatch
