package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTrendScoreDecays(t *testing.T) {
	now := time.Now()
	fresh := TrendScore(now.Add(-1*time.Hour), 10, 0, 5)
	stale := TrendScore(now.Add(-240*time.Hour), 10, 0, 5)
	require.Greater(t, fresh, stale)
}

func TestTrendScoreNeverNegative(t *testing.T) {
	score := TrendScore(time.Now().Add(-time.Hour), 0, 50, 0)
	require.Equal(t, 0.0, score)
}

func TestTrendScoreWeighsComments(t *testing.T) {
	at := time.Now().Add(-2 * time.Hour)
	discussed := TrendScore(at, 5, 0, 20)
	quiet := TrendScore(at, 5, 0, 0)
	require.Greater(t, discussed, quiet)
}
