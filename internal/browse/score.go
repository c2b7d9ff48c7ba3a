package browse

import (
	"sort"
	"strconv"

	"github.com/noteoverflow/noteoverflow/internal/question"
)

// DimensionWeights holds per-value preference weights for one dimension plus
// the dimension's global weight.
type DimensionWeights struct {
	Values map[string]float64 `json:"values"`
	Weight float64            `json:"weight"`
}

func (d DimensionWeights) value(key string) float64 {
	if d.Values == nil {
		return 0
	}
	return d.Values[key]
}

// Weights are the sort parameters for one confirmed query. They default
// from the filter's own selections and remain user-mutable until the next
// query is confirmed.
type Weights struct {
	PaperType DimensionWeights `json:"paperType"`
	Topic     DimensionWeights `json:"topic"`
	Year      DimensionWeights `json:"year"`
	Season    DimensionWeights `json:"season"`
}

// DefaultWeights derives the initial sort parameters from a confirmed
// filter: every selected value gets weight 1, and each dimension's weight is
// 1/len(selection). The formula is a heuristic; the one contract is
// monotonicity — fewer selected values in a dimension yield a larger
// dimension weight, so narrower filters dominate the default ordering.
func DefaultWeights(f Filter) Weights {
	w := Weights{
		PaperType: DimensionWeights{Values: map[string]float64{}, Weight: dimWeight(len(f.PaperTypes))},
		Topic:     DimensionWeights{Values: map[string]float64{}, Weight: dimWeight(len(f.Topics))},
		Year:      DimensionWeights{Values: map[string]float64{}, Weight: dimWeight(len(f.Years))},
		Season:    DimensionWeights{Values: map[string]float64{}, Weight: dimWeight(len(f.Seasons))},
	}
	for _, pt := range f.PaperTypes {
		w.PaperType.Values[strconv.Itoa(pt)] = 1
	}
	for _, t := range f.Topics {
		w.Topic.Values[t] = 1
	}
	for _, y := range f.Years {
		w.Year.Values[strconv.Itoa(y)] = 1
	}
	for _, s := range f.Seasons {
		w.Season.Values[string(s)] = 1
	}
	return w
}

func dimWeight(selected int) float64 {
	if selected < 1 {
		selected = 1
	}
	return 1 / float64(selected)
}

// Score computes the combined preference score for a question. The topic
// term averages over the question's topics; a question with no topics
// contributes 0 for that term rather than NaN.
func (w Weights) Score(q question.Question) float64 {
	score := w.PaperType.value(strconv.Itoa(q.PaperType)) * w.PaperType.Weight
	score += w.Year.value(strconv.Itoa(q.Year)) * w.Year.Weight
	score += w.Season.value(string(q.Season)) * w.Season.Weight

	if len(q.Topics) > 0 {
		var sum float64
		for _, t := range q.Topics {
			sum += w.Topic.value(t) * w.Topic.Weight
		}
		score += sum / float64(len(q.Topics))
	}
	return score
}

// SortByScore returns a new list ordered by descending combined score. The
// sort is stable: equal-score questions keep their relative input order.
func SortByScore(qs []question.Question, w Weights) []question.Question {
	out := append([]question.Question(nil), qs...)
	sort.SliceStable(out, func(i, j int) bool {
		return w.Score(out[i]) > w.Score(out[j])
	})
	return out
}
