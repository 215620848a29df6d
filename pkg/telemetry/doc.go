// Package telemetry exports the activity of a node: Prometheus metrics
// for ticks, commands and stage transitions, and stage changes published
// over MQTT.
package telemetry
