// Package bulk coordinates batch imports.
//
// A batch is capped, repaired (sequence counters realigned once), then each
// item is dispatched sequentially in submission order. Every attempt runs
// under its own timeout; transient outcomes are retried with linear backoff up
// to the configured limit. After a batch with at least one success the read
// cache namespaces for the batch kind are invalidated once.
package bulk
