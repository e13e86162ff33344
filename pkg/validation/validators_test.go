package validation_test

import (
	"testing"

	"go-jobalert-scheduler/pkg/validation"

	"github.com/stretchr/testify/assert"
)

type schedule struct {
	Type string `validate:"required,notification_type"`
	Cron string `validate:"required,cron_spec"`
}

type target struct {
	Platform string `validate:"required,social_platform"`
	Mobile   string `validate:"valid_phone"`
}

func TestCustomValidators(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Struct(schedule{Type: "daily_job_alert", Cron: "0 6 * * *"}))
	assert.NoError(t, v.Struct(schedule{Type: "weekly_job_alert", Cron: "@weekly"}))
	assert.Error(t, v.Struct(schedule{Type: "hourly", Cron: "0 6 * * *"}))
	assert.Error(t, v.Struct(schedule{Type: "daily_job_alert", Cron: "every morning"}))

	assert.NoError(t, v.Struct(target{Platform: "facebook", Mobile: "+628123456789"}))
	assert.Error(t, v.Struct(target{Platform: "Face Book"}))
	assert.Error(t, v.Struct(target{Platform: "facebook", Mobile: "call me"}))
}

func TestFormatValidationErrors(t *testing.T) {
	v := validation.New()

	msgs := validation.FormatValidationErrors(v.Struct(schedule{Cron: "nope"}))
	assert.Equal(t, []string{
		"Notification type: is required",
		`Cron expression: invalid cron expression "nope"`,
	}, msgs)
}
