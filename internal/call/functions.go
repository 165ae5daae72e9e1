package call

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/carelinehq/intakeline/internal/questionnaire"
	"github.com/carelinehq/intakeline/internal/realtime"
)

// functionName is the closed set of model tool calls the orchestrator honors.
type functionName string

const (
	fnSaveResponse  functionName = "save_response"
	fnCountAnswered functionName = "count_answered_questions"
	fnEndCall       functionName = "end_call"
)

// dispatchFunctionLocked routes one completed function call. Every branch
// except end_call emits exactly one function_call_output followed by a
// response.create. Unknown names get an error output rather than silence so
// the model is never left waiting.
func (o *Orchestrator) dispatchFunctionLocked(ctx context.Context, sess *callSession, evt realtime.FunctionCallDone) error {
	switch functionName(evt.Name) {
	case fnSaveResponse:
		return o.handleSaveResponseLocked(ctx, sess, evt)
	case fnCountAnswered:
		return o.handleCountAnsweredLocked(sess, evt)
	case fnEndCall:
		o.metrics.FunctionCalls.WithLabelValues(evt.Name, "ok").Inc()
		return errCallEnded
	default:
		log.Printf("call %s: unknown function %q", sess.call.ID, evt.Name)
		o.metrics.FunctionCalls.WithLabelValues("unknown", "error").Inc()
		return o.respondLocked(sess, evt.CallID, fmt.Sprintf(`{"error":"unknown function %s"}`, evt.Name))
	}
}

type saveResponseArgs struct {
	LinkID string          `json:"linkId"`
	Answer json.RawMessage `json:"answer"`
}

func (o *Orchestrator) handleSaveResponseLocked(ctx context.Context, sess *callSession, evt realtime.FunctionCallDone) error {
	var args saveResponseArgs
	if err := json.Unmarshal([]byte(evt.Arguments), &args); err != nil {
		o.metrics.FunctionCalls.WithLabelValues(evt.Name, "decode_error").Inc()
		return o.respondLocked(sess, evt.CallID, `{"error":"invalid save_response arguments"}`)
	}
	if strings.TrimSpace(args.LinkID) == "" {
		o.metrics.FunctionCalls.WithLabelValues(evt.Name, "decode_error").Inc()
		return o.respondLocked(sess, evt.CallID, `{"error":"linkId is required"}`)
	}

	section := sess.seq.Current()
	tracker := section.Tracker
	if tracker == nil {
		log.Printf("call %s: section %s has no tracker, ending call", sess.call.ID, section.ID)
		o.metrics.FunctionCalls.WithLabelValues(evt.Name, "error").Inc()
		if err := o.respondLocked(sess, evt.CallID, `{"error":"section unavailable"}`); err != nil {
			return err
		}
		return errCallEnded
	}

	answer := questionnaire.DecodeAnswer(args.Answer)
	if !tracker.SaveAnswer(args.LinkID, answer) {
		o.metrics.FunctionCalls.WithLabelValues(evt.Name, "save_failed").Inc()
		return o.respondLocked(sess, evt.CallID, `{"error":"could not save the answer, please try again"}`)
	}

	start := time.Now()
	if err := tracker.Persist(ctx); err != nil {
		log.Printf("call %s: persist answer %s failed: %v", sess.call.ID, args.LinkID, err)
		o.metrics.FunctionCalls.WithLabelValues(evt.Name, "persist_failed").Inc()
		return o.respondLocked(sess, evt.CallID, `{"error":"could not save the answer, please try again"}`)
	}
	o.metrics.ObserveSaveLatency(time.Since(start))
	o.metrics.FunctionCalls.WithLabelValues(evt.Name, "ok").Inc()

	if next, ok := tracker.NextQuestion(); ok {
		return o.respondLocked(sess, evt.CallID, mustMarshal(next))
	}

	// Section exhausted.
	if err := o.store.MarkSectionComplete(ctx, sess.call.ID, section.ID); err != nil {
		log.Printf("call %s: mark section %s complete failed: %v", sess.call.ID, section.ID, err)
	}

	if err := sess.seq.Advance(); err == nil {
		nextSection := sess.seq.Current()
		rank, total := sess.seq.DisplayPosition()
		if err := o.sendModelLocked(sess, realtime.NewSessionUpdate(o.sessionConfig(sectionInstructions(nextSection, rank, total)))); err != nil {
			return err
		}
		if q, ok := nextSection.Tracker.NextQuestion(); ok {
			return o.respondLocked(sess, evt.CallID, mustMarshal(q))
		}
		// Eligible at init but drained via the persistence side channel;
		// fall through to feedback.
	}

	if err := o.writeFunctionOutputLocked(sess, evt.CallID, `{"status":"questionnaire complete"}`); err != nil {
		return err
	}
	o.enterFeedbackLocked(ctx, sess)
	return o.sendModelLocked(sess, realtime.NewResponseCreate())
}

func (o *Orchestrator) handleCountAnsweredLocked(sess *callSession, evt realtime.FunctionCallDone) error {
	tracker := sess.seq.Current().Tracker
	if tracker == nil {
		o.metrics.FunctionCalls.WithLabelValues(evt.Name, "error").Inc()
		return o.respondLocked(sess, evt.CallID, `{"error":"section unavailable"}`)
	}
	o.metrics.FunctionCalls.WithLabelValues(evt.Name, "ok").Inc()
	count := tracker.CountAnswered()
	sentence := fmt.Sprintf("The caller has answered %d questions in this section so far.", count)
	return o.respondLocked(sess, evt.CallID, sentence)
}

// respondLocked emits one function output followed by a continuation request.
func (o *Orchestrator) respondLocked(sess *callSession, callID, output string) error {
	if err := o.writeFunctionOutputLocked(sess, callID, output); err != nil {
		return err
	}
	return o.sendModelLocked(sess, realtime.NewResponseCreate())
}

func (o *Orchestrator) writeFunctionOutputLocked(sess *callSession, callID, output string) error {
	return o.sendModelLocked(sess, realtime.NewFunctionOutput(callID, output))
}

func mustMarshal(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
