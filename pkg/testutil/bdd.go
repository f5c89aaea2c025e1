package testutil

import "testing"

// Scenario steps run as named subtests so a failing workflow reads as
// "Given an approved application/When ...". Each returns whether the step passed,
// letting later steps bail out early.
func Given(t *testing.T, desc string, fn func(t *testing.T)) bool {
	return step(t, "Given", desc, fn)
}

func When(t *testing.T, desc string, fn func(t *testing.T)) bool {
	return step(t, "When", desc, fn)
}

func Then(t *testing.T, desc string, fn func(t *testing.T)) bool {
	return step(t, "Then", desc, fn)
}

func And(t *testing.T, desc string, fn func(t *testing.T)) bool {
	return step(t, "And", desc, fn)
}

func step(t *testing.T, keyword, desc string, fn func(t *testing.T)) bool {
	t.Helper()
	return t.Run(keyword+" "+desc, fn)
}
