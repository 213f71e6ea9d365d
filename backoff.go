package mediatex

import (
	"math"
	"time"
)

// maxErrorSleep caps the exponential backoff determined by
// sleepTimeFromErrorCount.
const (
	maxErrorSleep    = 2 * time.Second
	maxSleepAttempts = 20
)

func sleepTimeFromErrorCount(errCount int) time.Duration {
	if errCount > maxSleepAttempts {
		errCount = maxSleepAttempts
	}
	expBackoffMillisec := math.Pow(6.0, float64(errCount))
	expBackoff := time.Duration(expBackoffMillisec * float64(time.Millisecond))
	if expBackoff <= 0 || expBackoff > maxErrorSleep {
		return maxErrorSleep
	}
	return expBackoff
}
