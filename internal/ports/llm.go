package ports

import "context"

// InterpretInput holds everything the LLM needs to interpret a reading.
type InterpretInput struct {
	DeckID   string
	Spread   string
	Question string
	Lang     string
	Cards    []CardInput
}

// CardInput is a simplified card representation for the LLM prompt.
type CardInput struct {
	Name        string
	Position    int
	Label       string
	Orientation string
	Keywords    []string
	Short       string
}

// InterpretOutput is the structured interpretation returned by the LLM.
type InterpretOutput struct {
	Text       string `json:"text"`
	Style      string `json:"style"`
	Disclaimer string `json:"disclaimer"`
	// Model is the model that produced the answer; set by the adapter.
	Model string `json:"-"`
}

// Interpreter generates a tarot interpretation via an LLM.
type Interpreter interface {
	Interpret(ctx context.Context, in InterpretInput) (InterpretOutput, error)
}
