package usecase

import (
	"context"
	"sort"
	"time"
)

// PingFunc probes one dependency.
type PingFunc func(ctx context.Context) error

type HealthUsecase interface {
	// Check reports "ok" or the failure for every dependency, plus an overall
	// "status" of "ok" or "degraded".
	Check(ctx context.Context) map[string]string
}

type healthUsecase struct {
	checks  map[string]PingFunc
	timeout time.Duration
}

func NewHealthUsecase(checks map[string]PingFunc) HealthUsecase {
	return &healthUsecase{checks: checks, timeout: 2 * time.Second}
}

func (u *healthUsecase) Check(ctx context.Context) map[string]string {
	result := map[string]string{"status": "ok"}

	names := make([]string, 0, len(u.checks))
	for name := range u.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		pctx, cancel := context.WithTimeout(ctx, u.timeout)
		err := u.checks[name](pctx)
		cancel()
		if err != nil {
			result[name] = "down: " + err.Error()
			result["status"] = "degraded"
			continue
		}
		result[name] = "ok"
	}
	return result
}
