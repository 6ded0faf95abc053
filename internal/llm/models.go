package llm

// Model identifiers for the two capability classes used by the pipeline.
const (
	ModelOpus   = "claude-opus-4-20250514"
	ModelSonnet = "claude-sonnet-4-20250514"
)

// Generation limits shared by all document-producing calls.
const (
	MaxRetries          = 3
	MaxTokensGeneration = 8000
)

// complexDocTypes get the higher-capability model for deeper reasoning.
var complexDocTypes = map[string]bool{
	"architecture": true,
	"concept":      true,
}

// customComplexDocTypes is the equivalent set for the user-facing custom
// document types.
var customComplexDocTypes = map[string]bool{
	"technical": true,
	"wiki":      true,
}

// SelectModel picks a model for a planned document type. Pure function of
// docType.
func SelectModel(docType string) string {
	if complexDocTypes[docType] {
		return ModelOpus
	}
	return ModelSonnet
}

// SelectCustomModel picks a model for a custom document request type.
func SelectCustomModel(docType string) string {
	if customComplexDocTypes[docType] {
		return ModelOpus
	}
	return ModelSonnet
}
