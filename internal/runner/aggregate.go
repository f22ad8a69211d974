package runner

import (
	"cmp"
	"slices"
)

// CountFrequency is how many trials ended with a given actual count.
type CountFrequency struct {
	Count  int `json:"count"`
	Trials int `json:"trials"`
}

// AggregateResult summarizes the trials of one model.
type AggregateResult struct {
	Model           string           `json:"model"`
	Experiments     int              `json:"experiments"`
	Matched         int              `json:"matched"`
	Failed          int              `json:"failed"`
	Unreported      int              `json:"unreported"`
	AccuracyPct     float64          `json:"accuracy_pct"`
	MostCommonCount int              `json:"most_common_count"`
	MostCommonPct   float64          `json:"most_common_pct"`
	MinActual       int              `json:"min_actual"`
	MaxActual       int              `json:"max_actual"`
	MeanActual      float64          `json:"mean_actual"`
	Distribution    []CountFrequency `json:"distribution"`
}

// Aggregate summarizes trials. Accuracy is matched/total; the most common
// actual count breaks ties toward the smallest count. No trials yields a
// zero result for model.
func Aggregate(model string, trials []Trial) AggregateResult {
	result := AggregateResult{Model: model, Experiments: len(trials)}
	if len(trials) == 0 {
		return result
	}
	frequencies := map[int]int{}
	sum := 0
	result.MinActual = trials[0].ActualCount
	result.MaxActual = trials[0].ActualCount
	for _, trial := range trials {
		if trial.Matched && !trial.Failed() {
			result.Matched++
		}
		if trial.Failed() {
			result.Failed++
		}
		if trial.ReportedCount == nil {
			result.Unreported++
		}
		frequencies[trial.ActualCount]++
		sum += trial.ActualCount
		result.MinActual = min(result.MinActual, trial.ActualCount)
		result.MaxActual = max(result.MaxActual, trial.ActualCount)
	}

	result.Distribution = make([]CountFrequency, 0, len(frequencies))
	for count, n := range frequencies {
		result.Distribution = append(result.Distribution, CountFrequency{Count: count, Trials: n})
	}
	slices.SortFunc(result.Distribution, func(a, b CountFrequency) int {
		return cmp.Compare(a.Count, b.Count)
	})
	mode := result.Distribution[0]
	for _, entry := range result.Distribution[1:] {
		if entry.Trials > mode.Trials {
			mode = entry
		}
	}

	total := float64(len(trials))
	result.AccuracyPct = float64(result.Matched) / total * 100
	result.MostCommonCount = mode.Count
	result.MostCommonPct = float64(mode.Trials) / total * 100
	result.MeanActual = float64(sum) / total
	return result
}
