// Package shared holds helpers used across the batch programs' tests.
//
// testutil.LogCapture is a slog.Handler that records every log call so tests
// can assert on warnings such as skipped predicates:
//
//	capture := testutil.NewLogCapture(t)
//	k := report.New(capture.Logger())
//	...
//	r, ok := capture.Find("predicate skipped")
package shared
