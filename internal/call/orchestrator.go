package call

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carelinehq/intakeline/internal/feedback"
	"github.com/carelinehq/intakeline/internal/observability"
	"github.com/carelinehq/intakeline/internal/policy"
	"github.com/carelinehq/intakeline/internal/questionnaire"
	"github.com/carelinehq/intakeline/internal/realtime"
	"github.com/carelinehq/intakeline/internal/reliability"
	"github.com/carelinehq/intakeline/internal/telephony"
)

// Conn is the subset of a websocket connection the orchestrator drives.
// *websocket.Conn satisfies it; tests provide fakes.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteJSON(v any) error
	Close() error
}

// errCallEnded signals normal teardown (stop event, hangup, end_call).
var errCallEnded = errors.New("call ended")

type phase int

const (
	phaseActive phase = iota
	phaseFeedback
)

// callSession is the per-call state shared by the two pumps. Every mutation
// happens under mu so neither pump observes a torn update.
type callSession struct {
	mu    sync.Mutex
	call  *Call
	state StreamState
	seq   *questionnaire.Sequencer
	phase phase
	tel   Conn
	model Conn
}

// Orchestrator bridges the telephony media stream and the realtime speech
// model for every active call, one session per call.
type Orchestrator struct {
	registry         *Manager
	store            questionnaire.Store
	feedback         feedback.Provider
	lifecycle        Lifecycle
	metrics          *observability.Metrics
	modelVoice       string
	modelTemperature float64
	verboseEvents    map[string]struct{}
}

func NewOrchestrator(
	registry *Manager,
	store questionnaire.Store,
	feedbackProvider feedback.Provider,
	lifecycle Lifecycle,
	metrics *observability.Metrics,
	modelVoice string,
	modelTemperature float64,
	verboseEvents []string,
) *Orchestrator {
	verbose := make(map[string]struct{}, len(verboseEvents))
	for _, v := range verboseEvents {
		verbose[v] = struct{}{}
	}
	return &Orchestrator{
		registry:         registry,
		store:            store,
		feedback:         feedbackProvider,
		lifecycle:        lifecycle,
		metrics:          metrics,
		modelVoice:       modelVoice,
		modelTemperature: modelTemperature,
		verboseEvents:    verbose,
	}
}

// Run owns the full lifetime of one call: bootstraps the model session,
// pumps both sockets until either leg ends, then tears down bidirectionally.
func (o *Orchestrator) Run(ctx context.Context, c *Call, sections []questionnaire.Section, tel, model Conn) error {
	sess := &callSession{call: c, tel: tel, model: model, phase: phaseActive}

	seq, seqErr := questionnaire.NewSequencer(sections)
	if seqErr != nil && !errors.Is(seqErr, questionnaire.ErrNothingToCollect) {
		return seqErr
	}
	sess.seq = seq

	if err := o.lifecycle.Accept(ctx, c.ProviderCallSID, ""); err != nil {
		log.Printf("call %s: accept failed: %v", c.ID, err)
	}

	// Operator force-end and inactivity expiry close both sockets; the pumps
	// then unwind through the normal teardown path.
	if err := o.registry.RegisterCloser(c.ID, func() {
		_ = tel.Close()
		_ = model.Close()
	}); err != nil {
		log.Printf("call %s: closer registration failed: %v", c.ID, err)
	}

	sess.mu.Lock()
	var bootErr error
	if errors.Is(seqErr, questionnaire.ErrNothingToCollect) {
		o.enterFeedbackLocked(ctx, sess)
		bootErr = o.sendModelLocked(sess, realtime.NewResponseCreate())
	} else {
		rank, total := seq.DisplayPosition()
		bootErr = o.sendModelLocked(sess, realtime.NewSessionUpdate(o.sessionConfig(sectionInstructions(seq.Current(), rank, total))))
		if bootErr == nil {
			bootErr = o.sendModelLocked(sess, realtime.NewResponseCreate())
		}
	}
	sess.mu.Unlock()
	if bootErr != nil {
		o.teardown(c)
		return bootErr
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() { errCh <- o.pumpTelephony(runCtx, sess) }()
	go func() { errCh <- o.pumpModel(runCtx, sess) }()

	err := <-errCh
	cancel()
	_ = tel.Close()
	_ = model.Close()
	<-errCh

	o.teardown(c)
	if errors.Is(err, errCallEnded) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// teardown is best-effort: registry, hangup, then post-call artifacts.
// Failures are logged and never re-thrown past this boundary.
func (o *Orchestrator) teardown(c *Call) {
	if _, err := o.registry.End(c.ID); err == nil {
		o.metrics.ActiveCalls.Set(float64(o.registry.ActiveCount()))
		o.metrics.CallEvents.WithLabelValues("ended").Inc()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := o.lifecycle.Hangup(ctx, c.ProviderCallSID); err != nil {
		log.Printf("call %s: hangup failed: %v", c.ID, err)
	}
	if rf, ok := o.lifecycle.(RecordingFetcher); ok {
		if err := rf.FetchRecording(ctx, c.ProviderCallSID); err != nil {
			log.Printf("call %s: recording fetch failed: %v", c.ID, err)
		}
	}
}

func (o *Orchestrator) pumpTelephony(ctx context.Context, sess *callSession) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_, raw, err := sess.tel.ReadMessage()
		if err != nil {
			return errCallEnded
		}
		evt, err := telephony.ParseEvent(raw)
		if err != nil {
			if !errors.Is(err, telephony.ErrUnsupportedEvent) {
				log.Printf("call %s: dropping telephony event: %v", sess.call.ID, err)
			}
			continue
		}
		if err := o.handleTelephonyEvent(ctx, sess, evt); err != nil {
			return err
		}
	}
}

func (o *Orchestrator) pumpModel(ctx context.Context, sess *callSession) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_, raw, err := sess.model.ReadMessage()
		if err != nil {
			return errCallEnded
		}
		evt, err := realtime.ParseEvent(raw)
		if err != nil {
			log.Printf("call %s: dropping model event: %v", sess.call.ID, err)
			continue
		}
		if err := o.handleModelEvent(ctx, sess, evt); err != nil {
			return err
		}
	}
}

func (o *Orchestrator) handleTelephonyEvent(ctx context.Context, sess *callSession, evt any) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	switch e := evt.(type) {
	case telephony.StartEvent:
		sess.state.BeginStream(e.Start.StreamSID)
		_ = o.registry.SetStreamSID(sess.call.ID, e.Start.StreamSID)
		o.metrics.WSMessages.WithLabelValues("telephony", "inbound", string(telephony.EventStart)).Inc()
	case telephony.MediaEvent:
		ts, err := e.TimestampMs()
		if err != nil {
			log.Printf("call %s: dropping media event: %v", sess.call.ID, err)
			return nil
		}
		sess.state.AdvanceInbound(ts)
		_ = o.registry.Touch(sess.call.ID)
		o.metrics.WSMessages.WithLabelValues("telephony", "inbound", string(telephony.EventMedia)).Inc()
		return o.sendModelLocked(sess, realtime.NewInputAudioAppend(e.Media.Payload))
	case telephony.MarkEvent:
		sess.state.PopMark()
		if len(sess.state.PendingMarks) == 0 {
			// Every relayed chunk has played out; the utterance is over and
			// no longer a barge-in target.
			sess.state.EndUtterance()
		}
		o.metrics.WSMessages.WithLabelValues("telephony", "inbound", string(telephony.EventMark)).Inc()
	case telephony.StopEvent:
		return errCallEnded
	}
	return nil
}

func (o *Orchestrator) handleModelEvent(ctx context.Context, sess *callSession, evt any) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	switch e := evt.(type) {
	case realtime.AudioDelta:
		if sess.state.MediaStreamID == "" {
			log.Printf("call %s: audio delta before stream start, dropped", sess.call.ID)
			return nil
		}
		if err := o.sendTelephonyLocked(sess, telephony.NewOutboundMedia(sess.state.MediaStreamID, e.Delta)); err != nil {
			return err
		}
		markName := uuid.NewString()
		sess.state.NoteAudioDelta(e.ItemID, markName)
		return o.sendTelephonyLocked(sess, telephony.NewOutboundMark(sess.state.MediaStreamID, markName))
	case realtime.SpeechStarted:
		if !sess.state.Interruptible() {
			return nil
		}
		itemID, elapsed := sess.state.Interrupt()
		o.metrics.Interruptions.Inc()
		_ = o.registry.Interrupt(sess.call.ID)
		return o.sendModelLocked(sess, realtime.NewItemTruncate(itemID, elapsed))
	case realtime.FunctionCallDone:
		return o.dispatchFunctionLocked(ctx, sess, e)
	case realtime.ErrorEvent:
		msg, _ := policy.RedactContact(e.Error.Message)
		if reliability.TransientModelCode(e.Error.Code) {
			log.Printf("call %s: transient model error: %s (code=%s)", sess.call.ID, msg, e.Error.Code)
		} else {
			log.Printf("call %s: model error: %s (code=%s)", sess.call.ID, msg, e.Error.Code)
		}
	case realtime.UnknownEvent:
		if _, ok := o.verboseEvents[string(e.Type)]; ok {
			log.Printf("call %s: model event %s", sess.call.ID, e.Type)
		}
	}
	return nil
}

// enterFeedbackLocked transitions into the Feedback state exactly once.
func (o *Orchestrator) enterFeedbackLocked(ctx context.Context, sess *callSession) {
	if sess.phase == phaseFeedback {
		return
	}
	sess.phase = phaseFeedback
	o.metrics.CallEvents.WithLabelValues("feedback").Inc()

	text := feedbackFallbackText
	if o.feedback != nil {
		generated, err := o.feedback.Generate(ctx, sess.call.ID)
		if err != nil {
			log.Printf("call %s: feedback generation failed, using fallback: %v", sess.call.ID, err)
		} else {
			text = generated
		}
	}
	if err := o.sendModelLocked(sess, realtime.NewSessionUpdate(o.sessionConfig(feedbackInstructions(text)))); err != nil {
		log.Printf("call %s: feedback prompt send failed: %v", sess.call.ID, err)
	}
}

func (o *Orchestrator) sendModelLocked(sess *callSession, msg any) error {
	if err := sess.model.WriteJSON(msg); err != nil {
		return err
	}
	o.metrics.WSMessages.WithLabelValues("model", "outbound", messageType(msg)).Inc()
	return nil
}

func (o *Orchestrator) sendTelephonyLocked(sess *callSession, msg any) error {
	if err := sess.tel.WriteJSON(msg); err != nil {
		return err
	}
	o.metrics.WSMessages.WithLabelValues("telephony", "outbound", messageType(msg)).Inc()
	return nil
}

func messageType(msg any) string {
	switch m := msg.(type) {
	case realtime.InputAudioAppend:
		return m.Type
	case realtime.ItemTruncate:
		return m.Type
	case realtime.FunctionOutputItem:
		return m.Type
	case realtime.ResponseCreate:
		return m.Type
	case realtime.SessionUpdate:
		return m.Type
	case telephony.OutboundMedia:
		return string(m.Event)
	case telephony.OutboundMark:
		return string(m.Event)
	default:
		return "unknown"
	}
}
