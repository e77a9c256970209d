// FILE: src/internal/queue/batch.go
package queue

import "pulse/src/internal/core"

// batch is one transport call worth of records
type batch struct {
	endpoint string
	method   core.DeliveryMethod
	records  []core.Record
}

// groupBatches groups entries by endpoint and method in order of first
// appearance, splitting each group into chunks of at most size records.
// Order inside a group is preserved.
func groupBatches(entries []core.Entry, size int) []batch {
	type group struct {
		endpoint string
		method   core.DeliveryMethod
		records  []core.Record
	}

	var order []string
	groups := make(map[string]*group)
	for _, e := range entries {
		key := e.Endpoint + "\x00" + e.Method.Key()
		g, ok := groups[key]
		if !ok {
			g = &group{endpoint: e.Endpoint, method: e.Method}
			groups[key] = g
			order = append(order, key)
		}
		g.records = append(g.records, e.Record)
	}

	var out []batch
	for _, key := range order {
		g := groups[key]
		for start := 0; start < len(g.records); start += size {
			end := min(start+size, len(g.records))
			out = append(out, batch{
				endpoint: g.endpoint,
				method:   g.method,
				records:  g.records[start:end],
			})
		}
	}
	return out
}
