package orchestration

// State is the position of the conversation loop.
//
//	WaitingForInput -> Sending -> StreamingResponse -> WaitingForInput
//	Sending | StreamingResponse -> ErrorReported -> WaitingForInput
//	WaitingForInput -> Terminated
type State int

const (
	StateWaitingForInput State = iota
	StateSending
	StateStreamingResponse
	StateErrorReported
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateWaitingForInput:
		return "waiting_for_input"
	case StateSending:
		return "sending"
	case StateStreamingResponse:
		return "streaming_response"
	case StateErrorReported:
		return "error_reported"
	case StateTerminated:
		return "terminated"
	}
	return "unknown"
}

func (o *Orchestrator) State() State {
	o.stateMu.Lock()
	defer o.stateMu.Unlock()
	return o.state
}

func (o *Orchestrator) setState(state State) {
	o.stateMu.Lock()
	from := o.state
	o.state = state
	o.stateMu.Unlock()

	if from == state {
		return
	}
	logger.Debug("conversation state changed", "from", from.String(), "to", state.String())
	if o.onStateChange != nil {
		o.onStateChange(from, state)
	}
}
