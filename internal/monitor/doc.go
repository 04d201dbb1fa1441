// Package monitor mounts the overlay's operator debug pages under /debug/
// on an existing mux: a JSON track dump, an echarts view of the track
// field, counters, and a manual attach form.
package monitor
