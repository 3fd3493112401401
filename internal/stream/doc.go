// Package stream publishes ticks to Kafka.
//
// TickPublisher is a feed renderer. Each tick is produced asynchronously as
// JSON to the configured topic, keyed by symbol so a symbol's ticks stay in
// one partition and in order.
package stream
