package embedding

// EmbeddingInfo describes a model's shape: how many dimensions it
// returns, its context window, and the tokenizer it pairs with for
// budget accounting in splitter/summarizer.
type EmbeddingInfo struct {
	ModelName     string `json:"model_name"`
	Dimensions    int    `json:"dimensions"`
	MaxTokens     int    `json:"max_tokens"`
	TokenizerName string `json:"tokenizer_name,omitempty"`
}

// DefaultEmbeddingInfo returns a conservative guess for an unrecognized
// model name.
func DefaultEmbeddingInfo(modelName string) EmbeddingInfo {
	return EmbeddingInfo{ModelName: modelName, Dimensions: 1536, MaxTokens: 8191}
}

// OpenAISmallEmbedding3Info describes text-embedding-3-small.
func OpenAISmallEmbedding3Info() EmbeddingInfo {
	return EmbeddingInfo{ModelName: "text-embedding-3-small", Dimensions: 1536, MaxTokens: 8191, TokenizerName: "cl100k_base"}
}

// OpenAILargeEmbedding3Info describes text-embedding-3-large.
func OpenAILargeEmbedding3Info() EmbeddingInfo {
	return EmbeddingInfo{ModelName: "text-embedding-3-large", Dimensions: 3072, MaxTokens: 8191, TokenizerName: "cl100k_base"}
}

// OpenAIAdaEmbeddingInfo describes text-embedding-ada-002.
func OpenAIAdaEmbeddingInfo() EmbeddingInfo {
	return EmbeddingInfo{ModelName: "text-embedding-ada-002", Dimensions: 1536, MaxTokens: 8191, TokenizerName: "cl100k_base"}
}

// InfoForModel looks up the known EmbeddingInfo for an OpenAI model
// name, falling back to DefaultEmbeddingInfo for anything unrecognized.
func InfoForModel(modelName string) EmbeddingInfo {
	switch modelName {
	case "text-embedding-3-small":
		return OpenAISmallEmbedding3Info()
	case "text-embedding-3-large":
		return OpenAILargeEmbedding3Info()
	case "text-embedding-ada-002":
		return OpenAIAdaEmbeddingInfo()
	default:
		return DefaultEmbeddingInfo(modelName)
	}
}
