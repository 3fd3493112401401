// Package events is the in-process pub/sub bus between the controller, the feed
// and the sinks.
//
// The set of events is closed: every event type lives in this package and
// implements Event through an unexported marker method. Publishing never blocks;
// a subscriber that falls behind loses its oldest pending event.
package events
