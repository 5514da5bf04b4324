package analysis

import (
	"fmt"
	"os"
	"sort"

	"github.com/bytedance/sonic"

	"github.com/chatinsight/chatinsight-go/types"
)

// ArtifactNames for the two files the script writes into the work dir.
const (
	StructuredArtifact = "structured.json"
	StatsArtifact      = "rapport_stats.json"
)

// CheckArtifacts verifies both output files exist. A zero exit code alone is
// not proof of success.
func CheckArtifacts(structuredPath, statsPath string) error {
	for _, p := range []string{structuredPath, statsPath} {
		if _, err := os.Stat(p); err != nil {
			return fmt.Errorf("%w: %s", ErrIncompleteOutput, p)
		}
	}
	return nil
}

// Assemble parses both artifacts and reshapes them into the stable upload
// response. Numeric fields absent upstream come out as zero, never null.
func Assemble(sessionID, structuredPath, statsPath string) (*types.UploadResult, error) {
	structuredRaw, err := os.ReadFile(structuredPath)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrMalformedOutput, StructuredArtifact, err)
	}
	statsRaw, err := os.ReadFile(statsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrMalformedOutput, StatsArtifact, err)
	}

	var details []types.StructuredConversation
	if err := sonic.Unmarshal(structuredRaw, &details); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedOutput, StructuredArtifact, err)
	}
	var stats types.RapportStats
	if err := sonic.Unmarshal(statsRaw, &stats); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedOutput, StatsArtifact, err)
	}

	global := stats.GlobalStats
	result := &types.UploadResult{
		SessionID: sessionID,
		Stats: types.StatsSummary{
			TotalConversations:          global.TotalConversations,
			TotalWords:                  global.TotalWords,
			TotalInputTokens:            global.TotalTokensIn,
			TotalOutputTokens:           global.TotalTokensOut,
			AverageWordsPerConversation: global.AverageWordsPerConversation,
			TotalCost:                   global.TotalCost,
		},
		GraphsData:           buildGraphsData(stats.CostStatsCombinedOverTime),
		MessageStatsOverTime: stats.MessageStatsOverTime,
		Details:              details,
	}
	return result, nil
}

// buildGraphsData derives the parallel model/cost/token arrays from the
// per-model breakdown. Models are sorted so all three arrays share one
// deterministic ordering.
func buildGraphsData(combined types.CostStatsCombined) types.GraphsData {
	byModel := combined.CostsByModel
	if byModel == nil {
		byModel = map[string]types.ModelCost{}
	}
	models := make([]string, 0, len(byModel))
	for name := range byModel {
		models = append(models, name)
	}
	sort.Strings(models)

	costs := make([]float64, len(models))
	tokens := make([]int64, len(models))
	for i, name := range models {
		mc := byModel[name]
		costs[i] = mc.TotalCost
		tokens[i] = mc.InputTokens + mc.OutputTokens
	}
	return types.GraphsData{
		CostsByModel: byModel,
		Models:       models,
		Costs:        costs,
		Tokens:       tokens,
	}
}

// TotalMessages sums message counts across all conversations in the detail
// array; used for the persisted usage snapshot.
func TotalMessages(details []types.StructuredConversation) int {
	total := 0
	for _, conv := range details {
		total += conv.MessageCount()
	}
	return total
}
