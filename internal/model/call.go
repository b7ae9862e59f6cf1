package model

import "encoding/json"

// CallResult is the post-call summary returned by the call-details endpoint.
// Raw keeps the document exactly as received; the typed fields are a view
// over the parts the dashboard renders.
type CallResult struct {
	ID       string          `json:"id"`
	Summary  string          `json:"summary"`
	Analysis CallAnalysis    `json:"analysis"`
	Raw      json.RawMessage `json:"-"`
}

type CallAnalysis struct {
	StructuredData map[string]any `json:"structuredData"`
}

func (a CallAnalysis) IsQualified() bool {
	v, ok := a.StructuredData["is_qualified"].(bool)
	return ok && v
}
