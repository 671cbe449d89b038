// Package routing holds the pure decision functions that steer the two
// retry loops of a report run. Nothing here mutates state; the runner owns
// counters and loop control.
package routing

// Decision is the next action after a loop iteration.
type Decision int

const (
	Continue Decision = iota
	Retry
	RetryInterface
	End
)

func (d Decision) String() string {
	switch d {
	case Continue:
		return "continue"
	case Retry:
		return "retry"
	case RetryInterface:
		return "retry_interface"
	case End:
		return "end"
	default:
		return "unknown"
	}
}

// Verdicts produced by the validate step.
const (
	VerdictPass = "PASS"
	VerdictFail = "FAIL"
)

// MaxInterfaceAttempts caps the interface-creation loop. It is fixed and
// independent of the research loop's configurable cap.
const MaxInterfaceAttempts = 3

// AfterValidation decides the research-validation loop.
func AfterValidation(verdict string, currentAttempt, maxAttempts int) Decision {
	if verdict == VerdictPass {
		return Continue
	}
	if currentAttempt >= maxAttempts {
		return End
	}
	return Retry
}

// AfterExtraction decides the interface-creation loop.
func AfterExtraction(success bool, interfaceAttempt int) Decision {
	if success {
		return Continue
	}
	if interfaceAttempt >= MaxInterfaceAttempts {
		return End
	}
	return RetryInterface
}
