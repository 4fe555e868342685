package services

import (
	"sort"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	minOccurrences     = 3
	detectedConfidence = 0.90
)

// DetectRecurring finds series of transactions with the same normalized
// description that repeat on the rule's cadence. Income and expenses group
// together. It does not look at what is already stored; callers filter out
// known patterns.
//
// Groups are returned in order of their first appearance in txs.
func DetectRecurring(userID int64, txs []core.Transaction, rule CadenceRule) []core.RecurringExpense {
	groups := make(map[string][]core.Transaction)
	var order []string
	for _, t := range txs {
		key := core.NormalizeDescription(t.Description)
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], t)
	}

	title := cases.Title(language.Und)
	var found []core.RecurringExpense
	for _, key := range order {
		series := groups[key]
		if len(series) < minOccurrences {
			continue
		}

		sorted := make([]core.Transaction, len(series))
		copy(sorted, series)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].OccurredAt.Before(sorted[j].OccurredAt)
		})

		if !fitsCadence(rule, sorted) {
			continue
		}

		last := sorted[len(sorted)-1].OccurredAt.UTC()
		found = append(found, core.RecurringExpense{
			UserID:          userID,
			Name:            title.String(key),
			NormalizedName:  key,
			Amount:          seriesAmount(sorted),
			Frequency:       rule.Frequency(),
			DetectedDay:     last.Day(),
			ConfidenceScore: detectedConfidence,
			LastChargedAt:   last,
		})
	}
	return found
}

// seriesAmount averages every occurrence except the earliest one.
func seriesAmount(sorted []core.Transaction) decimal.Decimal {
	rest := sorted[1:]
	sum := decimal.Zero
	for _, t := range rest {
		sum = sum.Add(t.Amount)
	}
	return core.RoundMoney(sum.Div(decimal.NewFromInt(int64(len(rest)))))
}
