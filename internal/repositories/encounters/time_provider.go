package encounters

import "time"

//go:generate mockgen -destination=mocks/mock_time_provider.go -package=mocks github.com/KirkDiggler/initiative-tracker/internal/repositories/encounters TimeProvider

type TimeProvider interface {
	Now() time.Time
}

type realTimeProvider struct{}

func (realTimeProvider) Now() time.Time {
	return time.Now().UTC()
}

// NewRealTimeProvider returns the wall clock in UTC
func NewRealTimeProvider() TimeProvider {
	return realTimeProvider{}
}
