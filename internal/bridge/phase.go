package bridge

// Phase is the session bridge state. Transitions are monotonic except for
// the listening/speaking oscillation driven by upstream turn signals.
type Phase string

const (
	PhaseInit       Phase = "init"
	PhaseConnecting Phase = "connecting"
	PhaseReady      Phase = "ready"
	PhaseListening  Phase = "listening"
	PhaseSpeaking   Phase = "speaking"
	PhaseClosed     Phase = "closed"
	PhaseError      Phase = "error"
)

var phaseEdges = map[Phase][]Phase{
	PhaseInit:       {PhaseConnecting, PhaseClosed, PhaseError},
	PhaseConnecting: {PhaseReady, PhaseClosed, PhaseError},
	PhaseReady:      {PhaseListening, PhaseClosed, PhaseError},
	PhaseListening:  {PhaseSpeaking, PhaseClosed, PhaseError},
	PhaseSpeaking:   {PhaseListening, PhaseClosed, PhaseError},
	PhaseError:      {PhaseClosed},
	PhaseClosed:     {},
}

func (p Phase) canTransitionTo(next Phase) bool {
	for _, edge := range phaseEdges[p] {
		if edge == next {
			return true
		}
	}
	return false
}

func (p Phase) terminal() bool {
	return p == PhaseClosed || p == PhaseError
}
