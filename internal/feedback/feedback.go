package feedback

import (
	"context"
	"errors"
	"fmt"

	"github.com/carelinehq/intakeline/internal/questionnaire"
)

// Provider generates the closing feedback text for a finished call.
type Provider interface {
	Generate(ctx context.Context, callID string) (string, error)
}

var ErrNoVitals = errors.New("no vitals recorded for call")

// bpCategory buckets a blood pressure reading.
type bpCategory int

const (
	bpUnknown bpCategory = iota
	bpNormal
	bpElevated
	bpHigh
)

// TableProvider maps categorized vitals and symptom score through a static
// decision table. No state machine logic lives here.
type TableProvider struct {
	store questionnaire.Store
}

func NewTableProvider(store questionnaire.Store) *TableProvider {
	return &TableProvider{store: store}
}

func (p *TableProvider) Generate(ctx context.Context, callID string) (string, error) {
	answers, err := p.store.Answers(ctx, callID)
	if err != nil {
		return "", fmt.Errorf("load answers: %w", err)
	}

	var (
		systolic, diastolic *int64
		symptomScore        int64
		symptomCount        int
	)
	for _, a := range answers {
		if a.ValueInt == nil {
			continue
		}
		switch a.LinkID {
		case "systolic":
			systolic = a.ValueInt
		case "diastolic":
			diastolic = a.ValueInt
		case "breathlessness", "swelling", "fatigue":
			symptomScore += *a.ValueInt
			symptomCount++
		}
	}

	bp := categorizeBP(systolic, diastolic)
	if bp == bpUnknown && symptomCount == 0 {
		return "", ErrNoVitals
	}

	return feedbackText(bp, symptomScore), nil
}

func categorizeBP(systolic, diastolic *int64) bpCategory {
	if systolic == nil || diastolic == nil {
		return bpUnknown
	}
	switch {
	case *systolic >= 140 || *diastolic >= 90:
		return bpHigh
	case *systolic >= 130 || *diastolic >= 85:
		return bpElevated
	default:
		return bpNormal
	}
}

func feedbackText(bp bpCategory, symptomScore int64) string {
	switch {
	case bp == bpHigh && symptomScore >= 4:
		return "Your blood pressure is high and your symptoms are significant today. Please contact your care team as soon as possible."
	case bp == bpHigh:
		return "Your blood pressure reading is higher than your target range. Please check it again later today and let your care team know."
	case symptomScore >= 4:
		return "Your readings look stable, but your symptoms are more noticeable than usual. Keep an eye on them and reach out if they worsen."
	case bp == bpElevated:
		return "Your blood pressure is slightly elevated today. Keep following your care plan and measure again tomorrow."
	default:
		return "Your readings and symptoms look good today. Keep up the great work and we will talk again at your next check-in."
	}
}
