package validation

import (
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

// Regex patterns
var (
	// E164-like phone: optional +, digits 7-15 length
	phoneRegex = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

	// lowercase network identifier, e.g. "facebook", "linkedin_groups"
	platformRegex = regexp.MustCompile(`^[a-z][a-z0-9_]{1,31}$`)
)

var notificationTypes = map[string]bool{
	"daily_job_alert":   true,
	"weekly_job_alert":  true,
	"subscriber_digest": true,
	"saved_alert_match": true,
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// New returns a validator with the custom tags registered.
func New() *validator.Validate {
	v := validator.New()
	RegisterValidators(v)
	return v
}

// RegisterValidators registers custom validators to the validator instance
func RegisterValidators(v *validator.Validate) {
	_ = v.RegisterValidation("valid_phone", ValidPhone)
	_ = v.RegisterValidation("notification_type", NotificationType)
	_ = v.RegisterValidation("social_platform", SocialPlatform)
	_ = v.RegisterValidation("cron_spec", CronSpec)
}

// ValidPhone validates a phone number structure
func ValidPhone(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true
	}
	return phoneRegex.MatchString(val)
}

// NotificationType accepts only the alert kinds the scheduler can send.
func NotificationType(fl validator.FieldLevel) bool {
	return notificationTypes[fl.Field().String()]
}

func SocialPlatform(fl validator.FieldLevel) bool {
	return platformRegex.MatchString(fl.Field().String())
}

// CronSpec validates a standard five-field cron expression or a descriptor like "@daily".
// Empty values are allowed; combine with required when needed.
func CronSpec(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true
	}
	_, err := cronParser.Parse(val)
	return err == nil
}
