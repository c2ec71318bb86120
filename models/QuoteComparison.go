package models

import "sort"

// ComparisonStatuses are the quote statuses that participate in the
// comparison pass for an RFQ.
var ComparisonStatuses = []string{QuoteStatusEvaluated, QuoteStatusSelected, QuoteStatusRejected}

func (q *Quote) totalScore() float64 {
	if q.Evaluation == nil {
		return 0
	}
	return q.Evaluation.TotalScore
}

func (q *Quote) qualityScoreOrMissing() float64 {
	if q.Evaluation == nil {
		return MissingQualitySentinel
	}
	return q.Evaluation.QualityScore
}

func (q *Quote) deliveryValueOrZero() float64 {
	if q.DeliveryTime == nil {
		return 0
	}
	return q.DeliveryTime.Value
}

func (q *Quote) deliveryValueOrSentinel() float64 {
	if q.DeliveryTime == nil || q.DeliveryTime.Value == 0 {
		return MissingDeliverySentinel
	}
	return q.DeliveryTime.Value
}

// rankPositions returns a 1-based rank per input position. less compares two
// input positions; the sort is stable so ties keep their original fetch order.
func rankPositions(n int, less func(i, j int) bool) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return less(order[a], order[b])
	})
	ranks := make([]int, n)
	for pos, idx := range order {
		ranks[idx] = pos + 1
	}
	return ranks
}

// ComputeComparisonMetrics assigns the comparison sub-record of every quote in
// the set: price/delivery/quality ranks, overall rank, and price/delivery
// variance from the set average. The slice is expected in original fetch
// order; ties in every ranking resolve by that order. An empty set is a no-op.
//
// Zero and negative amounts are excluded from the price average, and missing
// delivery times from the delivery average, but every quote still receives
// ranks. Missing delivery time ranks with the 999 sentinel (last), missing
// quality score with 0 (last).
func ComputeComparisonMetrics(quotes []*Quote) {
	if len(quotes) == 0 {
		return
	}

	// Descending total score fixes the overall rank for the whole pass.
	overallRanks := rankPositions(len(quotes), func(i, j int) bool {
		return quotes[i].totalScore() > quotes[j].totalScore()
	})

	var priceSum, priceCount float64
	var deliverySum, deliveryCount float64
	for _, q := range quotes {
		if q.TotalAmount > 0 {
			priceSum += q.TotalAmount
			priceCount++
		}
		if v := q.deliveryValueOrZero(); v > 0 {
			deliverySum += v
			deliveryCount++
		}
	}
	var avgPrice, avgDelivery float64
	if priceCount > 0 {
		avgPrice = priceSum / priceCount
	}
	if deliveryCount > 0 {
		avgDelivery = deliverySum / deliveryCount
	}

	priceRanks := rankPositions(len(quotes), func(i, j int) bool {
		return quotes[i].TotalAmount < quotes[j].TotalAmount
	})
	deliveryRanks := rankPositions(len(quotes), func(i, j int) bool {
		return quotes[i].deliveryValueOrSentinel() < quotes[j].deliveryValueOrSentinel()
	})
	qualityRanks := rankPositions(len(quotes), func(i, j int) bool {
		return quotes[i].qualityScoreOrMissing() > quotes[j].qualityScoreOrMissing()
	})

	for i, q := range quotes {
		cmp := &QuoteComparison{
			PriceRank:    priceRanks[i],
			DeliveryRank: deliveryRanks[i],
			QualityRank:  qualityRanks[i],
			OverallRank:  overallRanks[i],
		}
		if avgPrice > 0 {
			cmp.PriceVarianceFromAverage = (q.TotalAmount - avgPrice) / avgPrice * 100
		}
		if avgDelivery > 0 {
			cmp.DeliveryVarianceFromAverage = (q.deliveryValueOrZero() - avgDelivery) / avgDelivery * 100
		}
		q.Comparison = cmp
	}
}
