package creec

import "fmt"

// A Result is the outcome of comparing received bytes against a reference.
// Mismatches are reported, never raised as errors.
type Result struct {
	Name       string
	Received   int
	Expected   int
	Mismatches int

	// Offsets lists the mismatching byte positions when requested.
	Offsets []int
}

// Passed reports whether every byte matched.
func (r Result) Passed() bool {
	return r.Mismatches == 0
}

func (r Result) String() string {
	if r.Passed() {
		return fmt.Sprintf("%s PASSED", r.Name)
	}

	return fmt.Sprintf("%s FAILED with %d mismatches", r.Name, r.Mismatches)
}

// Compare counts the bytes of got that differ from want. Bytes present in
// only one of the two count as mismatches.
func Compare(name string, got, want []byte, collectOffsets bool) Result {
	r := Result{Name: name, Received: len(got), Expected: len(want)}

	n := len(got)
	if len(want) > n {
		n = len(want)
	}

	for i := 0; i < n; i++ {
		if i < len(got) && i < len(want) && got[i] == want[i] {
			continue
		}

		r.Mismatches++
		if collectOffsets {
			r.Offsets = append(r.Offsets, i)
		}
	}

	return r
}
