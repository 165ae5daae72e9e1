package call

// StreamState is the per-call mutable state shared between the two stream
// pumps. It is exclusively owned by one orchestrator session and must only
// be touched while holding that session's mutex.
type StreamState struct {
	// MediaStreamID is set once, on the telephony start event.
	MediaStreamID string
	// LastInboundMs is the most recent telephony media timestamp; nil until
	// the stream starts.
	LastInboundMs *int64
	// InFlightItemID identifies the assistant utterance currently playing
	// out; empty when nothing is mid-flight.
	InFlightItemID string
	// PendingMarks holds one entry per relayed audio chunk, popped FIFO as
	// the provider acknowledges playback.
	PendingMarks []string
	// UtteranceStartMs is the inbound timestamp at which the current
	// assistant utterance began playing; nil between utterances.
	UtteranceStartMs *int64
}

// BeginStream captures the stream identifier and resets playback bookkeeping.
func (s *StreamState) BeginStream(streamID string) {
	s.MediaStreamID = streamID
	zero := int64(0)
	s.LastInboundMs = &zero
	s.UtteranceStartMs = nil
}

// AdvanceInbound records the timestamp of the latest caller media chunk.
func (s *StreamState) AdvanceInbound(ts int64) {
	s.LastInboundMs = &ts
}

// NoteAudioDelta records one relayed assistant audio chunk. The utterance
// start timestamp is pinned on the first chunk of a turn only.
func (s *StreamState) NoteAudioDelta(itemID, markName string) {
	if s.UtteranceStartMs == nil {
		start := int64(0)
		if s.LastInboundMs != nil {
			start = *s.LastInboundMs
		}
		s.UtteranceStartMs = &start
	}
	s.InFlightItemID = itemID
	s.PendingMarks = append(s.PendingMarks, markName)
}

// PopMark consumes the oldest playback acknowledgement, if any.
func (s *StreamState) PopMark() {
	if len(s.PendingMarks) > 0 {
		s.PendingMarks = s.PendingMarks[1:]
	}
}

// Interruptible reports whether an assistant utterance is in flight and can
// be truncated.
func (s *StreamState) Interruptible() bool {
	return len(s.PendingMarks) > 0 && s.UtteranceStartMs != nil && s.InFlightItemID != ""
}

// Interrupt clears the in-flight utterance and returns its item id plus the
// elapsed playback offset in milliseconds. Callers must check Interruptible
// first.
func (s *StreamState) Interrupt() (itemID string, elapsedMs int64) {
	itemID = s.InFlightItemID
	if s.LastInboundMs != nil && s.UtteranceStartMs != nil {
		elapsedMs = *s.LastInboundMs - *s.UtteranceStartMs
	}
	s.PendingMarks = nil
	s.InFlightItemID = ""
	s.UtteranceStartMs = nil
	return itemID, elapsedMs
}

// EndUtterance clears utterance tracking when a turn completes normally.
func (s *StreamState) EndUtterance() {
	s.InFlightItemID = ""
	s.UtteranceStartMs = nil
}
