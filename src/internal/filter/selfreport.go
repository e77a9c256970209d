// FILE: src/internal/filter/selfreport.go
package filter

import "strings"

// ShouldSuppress reports whether a signal describes the reporting endpoint itself.
// Reporting such a failure would feed the collector outage back into the queue.
func ShouldSuppress(url, endpoint string) bool {
	if url == "" || endpoint == "" {
		return false
	}
	return strings.Contains(strings.ToLower(url), strings.ToLower(endpoint))
}
