package aiparse

import "strings"

// Template turns a block of free text into the prompt sent to the model.
type Template interface {
	Render(text string) string
}

type TemplateFunc func(text string) string

func (f TemplateFunc) Render(text string) string {
	return f(text)
}

// InstructionTemplate appends fixed instructions after the user's text.
type InstructionTemplate struct {
	Instructions string
}

func (t InstructionTemplate) Render(text string) string {
	return strings.TrimRight(text, "\n") + "\n" + t.Instructions
}

// LiftTemplate asks for a single strength session in the dataset's lift shape.
var LiftTemplate = InstructionTemplate{Instructions: liftInstructions}

const liftInstructions = "Convert the above context into the following format, return nothing else.\n" +
	"```json\n" +
	`{
    "version": 2,
    "type": "lift",
    "date": "May 8, 2025, 11:13:00 AM",
    "data": {
        "duration": 40,
        "notes": "",
        "exercises": [
            "dumbbell row: 8x70, 8x90, 8x90",
            "single leg stair calf raise: 12, 17",
            "dumbbell overhead press: 8x40, 8x50, 8x60",
            "single leg glute bridge: 15, 17",
            "pull up: 6, 6, 6",
            "rdl: 6x55, 6x55, 7x55",
            "tib raise: 15x10, 15x10"
        ]
    }
}
` + "```\n"
