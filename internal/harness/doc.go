// Package harness runs journal scenarios: a fixed set of events and focus
// data is written to a fresh store, then a list of checks queries it and
// compares the answers.
//
// # Scenario Format
//
//	name: shared_work_tag
//	description: "Documents edited close together are related"
//	now: 200                     # fixed clock, ms since epoch
//	events:
//	  - timestamp: 100
//	    actor: app://editor.desktop
//	    subjects:
//	      - uri: doc://a.txt
//	        tags: [work]
//	focus:
//	  switches:
//	    - {timestamp: 120, from_subject: doc://a.txt, to_subject: doc://b.txt}
//	  changes:
//	    - {timestamp: 120, actor: app://editor.desktop, subject: doc://b.txt}
//	checks:
//	  - type: related
//	    uri: doc://a.txt
//	    radius: 1h
//	    expect: [doc://b.txt]
//
// # Check Types
//
//   - find: events in [from, to) matching filter terms; expect_timestamps
//   - related: temporal co-occurrence around uri; expect lists URIs
//   - related_by_tags: shared tags with uri; expect lists URIs
//   - focus_related: focus switches to and from uri; expect lists URIs
//   - most_used_tags: tag usage in [from, to); expect lists tags
//   - duration: focused time on uri in [from, to); expect_duration in ms
//
// A check without an expectation only records its output, which still
// lands in the golden snapshot.
//
// # Deterministic Testing
//
// Every run uses a throwaway SQLite file, a manual clock pinned to now and
// sequential batch tokens, so snapshots are byte-identical between runs.
package harness
