package calc

// Return computes the profit of buying and selling quantity units.
//
// The fee is charged on the combined buy and sell notional, approximating a
// round-trip brokerage commission:
//
//	feeAmount = (totalBuy + totalSell)·feePercent/100
func Return(buyPrice, sellPrice, quantity, feePercent float64) (ReturnResult, bool) {
	if buyPrice <= 0 || sellPrice <= 0 || quantity <= 0 || feePercent < 0 {
		return ReturnResult{}, false
	}

	totalBuy := buyPrice * quantity
	totalSell := sellPrice * quantity
	profit := totalSell - totalBuy
	fee := (totalBuy + totalSell) * feePercent / 100
	net := profit - fee

	return ReturnResult{
		ProfitLoss:       profit,
		ReturnPercent:    profit / totalBuy * 100,
		TotalBuy:         totalBuy,
		TotalSell:        totalSell,
		FeeAmount:        fee,
		NetProfitLoss:    net,
		NetReturnPercent: net / totalBuy * 100,
	}, true
}
