/*
Package export implements the batched span export pipeline.

Completed spans are appended to a bounded in-memory queue and flushed by a
background loop, triggered by a batch-size threshold or a flush interval,
whichever comes first. Transmission uses a pluggable Transport: OTLP over
gRPC (the default, matching the collector gateway) or JSON over HTTP.

The pipeline is deliberately decoupled from request handling:

  - Enqueue is O(1) and never blocks, even mid-flush.
  - A full queue drops the oldest spans and counts them; it never errors.
  - Failed transmissions retry with exponential backoff, then the batch is
    discarded, counted, and logged.
  - Shutdown attempts a final flush bounded by the caller's deadline.

Resource metadata (service name, version, deployment environment) is attached
once per process and included with every exported batch.
*/
package export
