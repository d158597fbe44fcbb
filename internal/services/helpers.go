package services

import (
	"context"
	"strings"
)

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func defaultIfEmpty(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func clampLimit(limit, fallback, ceiling int) int {
	if limit <= 0 || limit > ceiling {
		return fallback
	}
	return limit
}

func normaliseOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
