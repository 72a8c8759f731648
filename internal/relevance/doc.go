// Package relevance ranks subjects related to an anchor URI.
//
// Four signals are supported:
//   - Temporal co-occurrence: URIs seen in events near the anchor's events
//   - Tag overlap: URIs sharing tags with the anchor
//   - Focus switches: URIs the user switched to or from the anchor
//   - Focus duration: total time spent focused on a subject or actor
//
// Every ranking orders by score descending with ties broken by URI
// ascending, so results are deterministic. Rankings run as a single
// aggregate query each and honor context cancellation.
package relevance
