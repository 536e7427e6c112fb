// Package harness runs congruence scenarios as executable conformance
// tests.
//
// # Scenario Format
//
// Scenarios are YAML files with the following structure:
//
//	name: klein_two_classes
//	description: "What this scenario validates"
//	presentation: ../presentations/klein.yaml
//	strategies: [todd-coxeter, knuth-bendix]
//	mode: sequential
//	budget:
//	  max_rules: 100
//	  timeout: 5s
//	words: [a, b, bab]
//	cross_check: true
//	assertions:
//	  - type: nr_classes
//	    count: 2
//	  - type: equal
//	    words: [bab, a]
//	  - type: relations
//	    rules: ["aa -> a", "ab -> b", "ba -> b", "bb -> a"]
//
// Instead of a presentation file a scenario may embed one under `inline`,
// using the presentation file format.
//
// # Assertion Types
//
//   - outcome: the race ended with `won` or `incomplete`
//   - winner: the named strategy decided the congruence
//   - nr_classes: the quotient has exactly count classes
//   - equal: all listed words are in one class
//   - not_equal: the two listed words are in different classes
//   - class_index: word is in class index
//   - relations: the reduced complete rewriting system, in order
//   - event_count: the race recorded count events of a kind
//
// # Deterministic Testing
//
// Scenarios race in sequential mode unless they ask otherwise, with a
// fixed run ID and a fresh in-memory store per run. Class indices and
// relations do not depend on the winning strategy, so the snapshot written
// for golden comparison is byte-identical across runs.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/klein.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, e := range result.Errors {
//	        log.Println(e)
//	    }
//	}
package harness
