package calc

import "math"

// LossRecovery reports how far currentPrice sits below averagePrice and the
// gain needed to get back to it.
//
//	lossPercent         = (1 − current/avg)·100
//	requiredGainPercent = (avg/current − 1)·100
//
// A current price of zero is a total loss: {100, +Inf}. LossPercent is
// negative when the position is already in profit.
func LossRecovery(averagePrice, currentPrice float64) (LossRecoveryResult, bool) {
	if averagePrice <= 0 || currentPrice < 0 {
		return LossRecoveryResult{}, false
	}
	if currentPrice == 0 {
		return LossRecoveryResult{
			LossPercent:         100,
			RequiredGainPercent: math.Inf(1),
		}, true
	}
	return LossRecoveryResult{
		LossPercent:         (1 - currentPrice/averagePrice) * 100,
		RequiredGainPercent: (averagePrice/currentPrice - 1) * 100,
	}, true
}
