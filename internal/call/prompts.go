package call

import (
	"fmt"

	"github.com/carelinehq/intakeline/internal/questionnaire"
	"github.com/carelinehq/intakeline/internal/realtime"
)

const feedbackFallbackText = "Thank you for completing your check-in today. Your care team will review your answers and contact you if anything needs attention."

func sectionInstructions(sec questionnaire.Section, rank, total int) string {
	return fmt.Sprintf(
		"You are a friendly nurse assistant conducting a phone health check-in. "+
			"You are now on section %d of %d, covering %s. "+
			"Ask one question at a time, wait for the caller's answer, and record it "+
			"with the save_response function using the question's linkId. "+
			"Keep replies short and speak clearly. When the caller asks how far along "+
			"they are, use count_answered_questions. If the caller asks to stop, "+
			"confirm and then use end_call.",
		rank, total, sec.Title,
	)
}

func feedbackInstructions(text string) string {
	return fmt.Sprintf(
		"The questionnaire is complete. Read the following feedback to the caller "+
			"verbatim, then thank them and use end_call once they say goodbye: %q",
		text,
	)
}

func sessionTools() []realtime.Tool {
	return []realtime.Tool{
		{
			Type:        "function",
			Name:        "save_response",
			Description: "Record the caller's answer to the current question.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"linkId": map[string]any{
						"type":        "string",
						"description": "The linkId of the question being answered.",
					},
					"answer": map[string]any{
						"description": "The caller's answer, a number or free text.",
					},
				},
				"required": []string{"linkId", "answer"},
			},
		},
		{
			Type:        "function",
			Name:        "count_answered_questions",
			Description: "Report how many questions the caller has answered in this section.",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
		{
			Type:        "function",
			Name:        "end_call",
			Description: "Hang up the call after saying goodbye.",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
	}
}

func (o *Orchestrator) sessionConfig(instructions string) realtime.SessionConfig {
	return realtime.SessionConfig{
		Modalities:        []string{"text", "audio"},
		Instructions:      instructions,
		Voice:             o.modelVoice,
		InputAudioFormat:  "g711_ulaw",
		OutputAudioFormat: "g711_ulaw",
		Temperature:       o.modelTemperature,
		TurnDetection:     &realtime.TurnDetection{Type: "server_vad"},
		Tools:             sessionTools(),
		ToolChoice:        "auto",
	}
}
