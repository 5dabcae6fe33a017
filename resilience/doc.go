// Package resilience provides retry with exponential backoff and a
// context-aware wait used by retry loops and the job poller alike.
package resilience
