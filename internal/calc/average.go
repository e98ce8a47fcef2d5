package calc

import "math"

// AveragePrice computes the quantity-weighted average over lots. Lots with a
// non-positive price or quantity are skipped. Returns false when no valid lot
// remains.
//
//	totalInvested = Σ price·quantity
//	averagePrice  = totalInvested / Σ quantity
func AveragePrice(lots []Lot) (AveragePriceResult, bool) {
	var invested, quantity float64
	valid := 0
	for _, l := range lots {
		if !l.Valid() {
			continue
		}
		invested += l.Price * l.Quantity
		quantity += l.Quantity
		valid++
	}
	if valid == 0 || quantity == 0 {
		return AveragePriceResult{}, false
	}
	return AveragePriceResult{
		AveragePrice:  invested / quantity,
		TotalQuantity: quantity,
		TotalInvested: invested,
	}, true
}

// Averaging computes the new average after buying addQty at addPrice on top
// of currentQty held at currentAvg.
//
// Direction compares addPrice with currentAvg exactly, without tolerance.
// When marketPrice is non-nil and positive the break-even shift is filled in:
//
//	before = (currentAvg/market − 1)·100
//	after  = (newAvg/market − 1)·100
//	delta  = after − before
func Averaging(currentAvg, currentQty, addPrice, addQty float64, marketPrice *float64) (AveragingResult, bool) {
	if currentAvg <= 0 || currentQty <= 0 || addPrice <= 0 || addQty <= 0 {
		return AveragingResult{}, false
	}

	agg, _ := AveragePrice([]Lot{
		{Price: currentAvg, Quantity: currentQty},
		{Price: addPrice, Quantity: addQty},
	})

	res := AveragingResult{
		NewAveragePrice: agg.AveragePrice,
		TotalQuantity:   agg.TotalQuantity,
		TotalInvested:   agg.TotalInvested,
		Direction:       direction(currentAvg, addPrice),
	}

	if marketPrice != nil && *marketPrice > 0 {
		m := *marketPrice
		before := (currentAvg/m - 1) * 100
		after := (agg.AveragePrice/m - 1) * 100
		res.BreakEven = &BreakEven{
			Before: before,
			After:  after,
			Delta:  after - before,
		}
	}
	return res, true
}

func direction(currentAvg, addPrice float64) Direction {
	switch {
	case addPrice < currentAvg:
		return DirectionDown
	case addPrice > currentAvg:
		return DirectionUp
	default:
		return DirectionSame
	}
}

// AverageDown is the single-figure variant of Averaging. RequiredGainPercent
// is the gain from marketPrice to the new average, floored at zero; a zero
// market price yields +Inf and a negative one yields 0.
func AverageDown(currentAvg, currentQty, addPrice, addQty, marketPrice float64) (AverageDownResult, bool) {
	res, ok := Averaging(currentAvg, currentQty, addPrice, addQty, nil)
	if !ok {
		return AverageDownResult{}, false
	}

	var required float64
	switch {
	case marketPrice > 0:
		required = (res.NewAveragePrice/marketPrice - 1) * 100
	case marketPrice == 0:
		required = math.Inf(1)
	}

	return AverageDownResult{
		NewAveragePrice:     res.NewAveragePrice,
		TotalInvested:       res.TotalInvested,
		TotalQuantity:       res.TotalQuantity,
		RequiredGainPercent: math.Max(0, required),
	}, true
}
