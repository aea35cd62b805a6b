// Package benchrun provides benchmark orchestration: a runner that
// drives an ordered suite of inference test cases with concurrent
// resource sampling, and a controller that owns the single global run
// slot and the latest report.
package benchrun

import (
	"github.com/inferbench/inferbench/pkg/models"
)

const stressPrompt = `You are an expert biologist. Please provide a comprehensive explanation of cellular respiration,
including glycolysis, the Krebs cycle, and the electron transport chain. Explain how ATP is
generated in each stage, what molecules are involved, and how the process differs between
aerobic and anaerobic conditions. Also discuss the role of mitochondria in this process.`

// DefaultSuite returns the standard ordered test suite. The first case
// is a deliberate warmup; escalating prompt and completion sizes follow.
func DefaultSuite() []models.TestCase {
	return []models.TestCase{
		{
			Name:      "short_prompt_warmup",
			Prompt:    "What is 2+2?",
			MaxTokens: 10,
		},
		{
			Name:      "short_prompt_medium_completion",
			Prompt:    "What model are you?",
			MaxTokens: 50,
		},
		{
			Name:      "medium_prompt_long_completion",
			Prompt:    "Explain how photosynthesis works in plants. Include details about light-dependent and light-independent reactions.",
			MaxTokens: 200,
		},
		{
			Name:      "long_prompt_stress_test",
			Prompt:    stressPrompt,
			MaxTokens: 300,
		},
		{
			Name:      "code_generation",
			Prompt:    "Write a Python function to calculate the Fibonacci sequence up to n terms.",
			MaxTokens: 150,
		},
	}
}
