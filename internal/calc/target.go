package calc

// TargetProfit computes the exit price for a desired profit, given either as
// a return percentage (ModePercent) or an absolute amount (ModeAmount). The
// two modes are algebraic inverses of each other.
func TargetProfit(averagePrice, quantity float64, mode TargetMode, target float64) (TargetProfitResult, bool) {
	if averagePrice <= 0 || quantity <= 0 || target < 0 {
		return TargetProfitResult{}, false
	}

	invested := averagePrice * quantity

	switch mode {
	case ModePercent:
		price := averagePrice * (1 + target/100)
		return TargetProfitResult{
			TargetPrice:    price,
			ExpectedProfit: price*quantity - invested,
			ReturnPercent:  target,
		}, true
	case ModeAmount:
		return TargetProfitResult{
			TargetPrice:    (invested + target) / quantity,
			ExpectedProfit: target,
			ReturnPercent:  target / invested * 100,
		}, true
	default:
		return TargetProfitResult{}, false
	}
}

// ExitPlan evaluates a planned exit. In ModePrice the target is the exit
// price itself and the profit may be negative; in ModePercent it defers to
// TargetProfit. All inputs must be strictly positive.
func ExitPlan(averagePrice, quantity float64, mode TargetMode, target float64) (ExitPlanResult, bool) {
	if averagePrice <= 0 || quantity <= 0 || target <= 0 {
		return ExitPlanResult{}, false
	}

	invested := averagePrice * quantity

	switch mode {
	case ModePrice:
		profit := target*quantity - invested
		return ExitPlanResult{
			TargetProfitResult: TargetProfitResult{
				TargetPrice:    target,
				ExpectedProfit: profit,
				ReturnPercent:  profit / invested * 100,
			},
			TotalInvested: invested,
		}, true
	case ModePercent:
		res, ok := TargetProfit(averagePrice, quantity, ModePercent, target)
		if !ok {
			return ExitPlanResult{}, false
		}
		return ExitPlanResult{TargetProfitResult: res, TotalInvested: invested}, true
	default:
		return ExitPlanResult{}, false
	}
}
