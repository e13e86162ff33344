package usecase_test

import (
	"context"
	"errors"
	"testing"

	"go-jobalert-scheduler/internal/usecase"

	"github.com/stretchr/testify/assert"
)

func TestHealthUsecase_Check(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	status := usecase.NewHealthUsecase(map[string]usecase.PingFunc{"database": ok}).Check(context.Background())
	assert.Equal(t, map[string]string{"status": "ok", "database": "ok"}, status)

	status = usecase.NewHealthUsecase(map[string]usecase.PingFunc{"database": ok, "redis": down}).Check(context.Background())
	assert.Equal(t, "degraded", status["status"])
	assert.Equal(t, "down: connection refused", status["redis"])
}
