package llm

import (
	"fmt"

	"google.golang.org/genai"
)

const systemPrompt = `You are an AI-powered security analyst specializing in voice biometrics.

You will analyze the provided voice print for anomalies, potential threats like voice cloning or mimicking, and overall security.

Based on your analysis, you will provide a security assessment, including the overall security status (isSecure), threat level, any detected anomalies, and recommended actions to enhance security.

Consider factors such as voice consistency, unusual patterns, and indicators of synthetic voice generation.`

func userPrompt(userID string) string {
	return fmt.Sprintf("Analyze the attached voice print.\nUser ID: %s", userID)
}

var assessmentSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"securityAssessment": {
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"isSecure": {
					Type:        genai.TypeBoolean,
					Description: "Whether the voice print is currently considered secure.",
				},
				"threatLevel": {
					Type:        genai.TypeString,
					Description: "An assessment of the threat level, e.g., 'low', 'medium', or 'high'. Provide reasoning for the assigned threat level.",
				},
				"anomaliesDetected": {
					Type:        genai.TypeArray,
					Items:       &genai.Schema{Type: genai.TypeString},
					Description: "A list of any anomalies detected in the voice print.",
				},
				"recommendedActions": {
					Type:        genai.TypeArray,
					Items:       &genai.Schema{Type: genai.TypeString},
					Description: "A list of recommended actions to enhance the security of the voice print.",
				},
				"voiceWordCloud": {
					Type:        genai.TypeString,
					Description: "Optional short narrative describing the characteristics of the voice.",
					Nullable:    genai.Ptr(true),
				},
			},
			Required:         []string{"isSecure", "threatLevel", "anomaliesDetected", "recommendedActions"},
			PropertyOrdering: []string{"isSecure", "threatLevel", "anomaliesDetected", "recommendedActions", "voiceWordCloud"},
		},
	},
	Required: []string{"securityAssessment"},
}
