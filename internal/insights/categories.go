package insights

import (
	"math"
	"sort"

	"github.com/tejuiceB/finSight/internal/domain"
)

// essentialCategories is the fixed allowlist that splits a category's total
// into essential versus non-essential spend.
var essentialCategories = map[string]bool{
	"Food":       true,
	"Bills":      true,
	"Healthcare": true,
	"Transport":  true,
}

const maxMerchantsPerCategory = 5

// CategoryDetails aggregates expense transactions per category: total spend,
// top merchants, the date/amount series and the essential split. Categories
// come back sorted by total descending (ties by name, since Go map iteration
// would otherwise make the order random).
func CategoryDetails(transactions []domain.Transaction) []domain.CategoryDetail {
	if len(transactions) == 0 {
		return []domain.CategoryDetail{}
	}

	byCategory := make(map[string][]domain.Transaction)
	for _, t := range transactions {
		if t.Type == domain.TypeExpense {
			byCategory[t.Category] = append(byCategory[t.Category], t)
		}
	}

	details := make([]domain.CategoryDetail, 0, len(byCategory))
	for category, txns := range byCategory {
		var total float64
		merchants := make(map[string]*domain.MerchantStat)
		var merchantOrder []string
		pattern := make([]domain.DatedAmount, 0, len(txns))

		for _, t := range txns {
			amt := math.Abs(t.Amount)
			total += amt
			stat, ok := merchants[t.Merchant]
			if !ok {
				stat = &domain.MerchantStat{Merchant: t.Merchant}
				merchants[t.Merchant] = stat
				merchantOrder = append(merchantOrder, t.Merchant)
			}
			stat.Amount += amt
			stat.Count++
			pattern = append(pattern, domain.DatedAmount{Date: t.Date, Amount: amt})
		}

		breakdown := make([]domain.MerchantStat, 0, len(merchantOrder))
		for _, m := range merchantOrder {
			breakdown = append(breakdown, *merchants[m])
		}
		sort.SliceStable(breakdown, func(i, j int) bool {
			if breakdown[i].Amount != breakdown[j].Amount {
				return breakdown[i].Amount > breakdown[j].Amount
			}
			return breakdown[i].Merchant < breakdown[j].Merchant
		})
		if len(breakdown) > maxMerchantsPerCategory {
			breakdown = breakdown[:maxMerchantsPerCategory]
		}

		split := domain.EssentialSplit{}
		if essentialCategories[category] {
			split.Essential = total
		} else {
			split.NonEssential = total
		}

		details = append(details, domain.CategoryDetail{
			Category:          category,
			TotalAmount:       total,
			TransactionCount:  len(txns),
			MerchantBreakdown: breakdown,
			DatePattern:       pattern,
			EssentialSplit:    split,
		})
	}

	sort.SliceStable(details, func(i, j int) bool {
		if details[i].TotalAmount != details[j].TotalAmount {
			return details[i].TotalAmount > details[j].TotalAmount
		}
		return details[i].Category < details[j].Category
	})
	return details
}
