package types

// RapportStats mirrors rapport_stats.json as written by the analysis script.
// Every numeric field defaults to zero when the script omits it, so the
// response never carries nulls.
type RapportStats struct {
	GlobalStats               GlobalStats       `json:"global_stats"`
	CostStatsCombinedOverTime CostStatsCombined `json:"cost_stats_combined_over_time"`
	MessageStatsOverTime      any               `json:"message_stats_over_time"`
}

// GlobalStats holds the aggregate totals computed over the whole export.
type GlobalStats struct {
	TotalConversations          int     `json:"total_conversations"`
	TotalWords                  int     `json:"total_words"`
	TotalTokensIn               int64   `json:"total_tokens_in"`
	TotalTokensOut              int64   `json:"total_tokens_out"`
	AverageWordsPerConversation float64 `json:"average_words_per_conversation"`
	TotalCost                   float64 `json:"total_cost"`
}

// CostStatsCombined groups per-model cost/token figures.
type CostStatsCombined struct {
	CostsByModel map[string]ModelCost `json:"costs_by_model"`
}

// ModelCost is the cost/token breakdown for a single model.
type ModelCost struct {
	TotalCost    float64 `json:"total_cost"`
	InputTokens  int64   `json:"input_tokens"`
	OutputTokens int64   `json:"output_tokens"`
}

// StructuredConversation is one entry of structured.json. The script owns the
// schema; we only echo it back and count messages, so it stays a loose map.
type StructuredConversation map[string]any

// MessageCount returns the number of messages in the conversation, zero when
// the messages array is absent or malformed.
func (c StructuredConversation) MessageCount() int {
	msgs, ok := c["messages"].([]any)
	if !ok {
		return 0
	}
	return len(msgs)
}

// StatsSummary is the flattened totals block of the upload response.
type StatsSummary struct {
	TotalConversations          int     `json:"totalConversations"`
	TotalWords                  int     `json:"totalWords"`
	TotalInputTokens            int64   `json:"totalInputTokens"`
	TotalOutputTokens           int64   `json:"totalOutputTokens"`
	AverageWordsPerConversation float64 `json:"averageWordsPerConversation"`
	TotalCost                   float64 `json:"totalCost"`
}

// GraphsData carries the per-model breakdown plus the parallel arrays the
// frontend charts consume. Models, Costs and Tokens share one ordering.
type GraphsData struct {
	CostsByModel map[string]ModelCost `json:"costs_by_model"`
	Models       []string             `json:"models"`
	Costs        []float64            `json:"costs"`
	Tokens       []int64              `json:"tokens"`
}

// UploadResult is the stable response contract of POST /api/upload.
type UploadResult struct {
	SessionID            string                   `json:"sessionId"`
	Stats                StatsSummary             `json:"stats"`
	GraphsData           GraphsData               `json:"graphsData"`
	MessageStatsOverTime any                      `json:"messageStatsOverTime"`
	Details              []StructuredConversation `json:"details"`
}
