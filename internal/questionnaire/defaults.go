package questionnaire

// DefaultSections builds the standard intake questionnaire for one call:
// a vitals section followed by a short symptom survey.
func DefaultSections(store Store, callID string) []Section {
	vitals := []Question{
		{LinkID: "systolic", Text: "What was your systolic blood pressure reading, the top number?", Required: true},
		{LinkID: "diastolic", Text: "And the bottom number, your diastolic reading?", Required: true},
		{LinkID: "pulse", Text: "What was your pulse, in beats per minute?", Required: true},
		{LinkID: "weight", Text: "What is your current weight in kilograms?", Required: false},
	}
	symptoms := []Question{
		{LinkID: "breathlessness", Text: "On a scale of zero to three, how short of breath have you felt today?", Required: true},
		{LinkID: "swelling", Text: "On a scale of zero to three, how swollen are your ankles or feet?", Required: true},
		{LinkID: "fatigue", Text: "On a scale of zero to three, how tired have you felt today?", Required: true},
		{LinkID: "notes", Text: "Is there anything else you would like to mention?", Required: false},
	}

	return []Section{
		{
			ID:      "vitals",
			Title:   "your vital signs",
			Tracker: NewSurveyTracker(store, callID, "vitals", vitals),
		},
		{
			ID:      "symptoms",
			Title:   "your symptoms",
			Tracker: NewSurveyTracker(store, callID, "symptoms", symptoms),
		},
	}
}
