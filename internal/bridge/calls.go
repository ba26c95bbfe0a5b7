package bridge

import (
	"strings"
	"sync"
)

// callAccumulator collects streamed function-call argument fragments keyed
// by call id until the completion marker arrives.
type callAccumulator struct {
	mu      sync.Mutex
	partial map[string]*strings.Builder
}

func newCallAccumulator() *callAccumulator {
	return &callAccumulator{partial: make(map[string]*strings.Builder)}
}

func (a *callAccumulator) append(callID, fragment string) {
	if callID == "" || fragment == "" {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	b, ok := a.partial[callID]
	if !ok {
		b = &strings.Builder{}
		a.partial[callID] = b
	}
	b.WriteString(fragment)
}

// finalize consumes the accumulated fragments for callID. The completion
// event usually repeats the full argument payload; when it does, that
// payload wins and the fragments are discarded.
func (a *callAccumulator) finalize(callID, finalArgs string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	accumulated := ""
	if b, ok := a.partial[callID]; ok {
		accumulated = b.String()
		delete(a.partial, callID)
	}
	if finalArgs != "" {
		return finalArgs
	}
	return accumulated
}

func (a *callAccumulator) pendingCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.partial)
}
