package instrument

import "github.com/chennqqi/crestgo/pkg/abi"

// Stats tallies what a Visitor emitted across one translation unit, for
// the instrument subcommand's -v summary.
type Stats struct {
	Loads        int
	Stores       int
	Writes       int
	Derefs       int
	Branches     int
	Calls        int
	SkippedCalls int
}

// Tally folds one function's emitted call stream into s. Call it once
// per Function(fn) result; pass v.Skipped separately once per
// translation unit since it accumulates across every emitCall, not
// just the calls returned from a single Function invocation.
func (s *Stats) Tally(calls []Call) {
	for _, c := range calls {
		switch c.Which {
		case abi.Load, abi.LoadAggr:
			s.Loads++
		case abi.Store:
			s.Stores++
		case abi.Write:
			s.Writes++
		case abi.DerefCall:
			s.Derefs++
		case abi.Branch:
			s.Branches++
		case abi.CallCall:
			s.Calls++
		}
	}
}
