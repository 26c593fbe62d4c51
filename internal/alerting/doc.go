// Package alerting owns the alert lifecycle: mapping accepted issues to
// alerts through configured rules, cooldown suppression, queued delivery
// with bounded retry, and the acknowledgment state machine.
package alerting
