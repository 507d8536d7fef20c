// Package harness runs token database lifecycle scenarios.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	strings: [Hello, World]        # initial database
//	steps:
//	  - op: roundtrip
//	    format: binary
//	  - op: mark_removals
//	    strings: [Hello]
//	    date: 2023-04-05
//	    expect_affected: 1
//	  - op: purge
//	    date: 2023-04-05
//	assertions:
//	  - type: entry_count
//	    count: 1
//	  - type: present
//	    string: Hello
//
// # Operations
//
//   - add: Database.Add(strings)
//   - mark_removals: Database.MarkRemovals(strings, date)
//   - purge: Database.Purge(date); no date purges every removed entry
//   - merge: Database.Merge with a database built from entries
//   - filter: Database.Filter(include, exclude)
//   - roundtrip: encode and decode in format (binary or csv)
//
// # Assertion Types
//
//   - entry_count: the database holds exactly count entries
//   - present: string has an entry with no removal date
//   - removed: string has an entry removed on date
//   - absent: string has no entry
//   - collision: all strings share one token and are reported by Collisions
//
// # Deterministic Testing
//
// A mark_removals step without a date takes the next day from a
// testutil.DateClock, so reruns produce identical databases for golden
// file comparison.
package harness
