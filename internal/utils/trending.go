package utils

import (
	"math"
	"time"
)

type TrendConfig struct {
	Gravity        float64 // time decay exponent
	WeightComment  float64
	WeightUpvote   float64
	WeightDownvote float64
	ScaleFactor    float64
}

var DefaultTrendConfig = TrendConfig{
	Gravity:        1.5,
	WeightComment:  2.0,
	WeightUpvote:   1.0,
	WeightDownvote: 1.5,
	ScaleFactor:    100.0,
}

// TrendScore ranks an idea by weighted engagement, log-smoothed and decayed
// by age. Fresh ideas with active discussion beat old high-score ones.
func TrendScore(createdAt time.Time, up, down, comments int) float64 {
	hours := time.Since(createdAt).Hours()

	weightedSum := (float64(up) * DefaultTrendConfig.WeightUpvote) +
		(float64(comments) * DefaultTrendConfig.WeightComment) -
		(float64(down) * DefaultTrendConfig.WeightDownvote)
	if weightedSum < 0 {
		weightedSum = 0
	}

	logScore := math.Log10(weightedSum + 1)
	numerator := logScore * DefaultTrendConfig.ScaleFactor
	decay := math.Pow(hours+2, DefaultTrendConfig.Gravity)

	return numerator / decay
}
