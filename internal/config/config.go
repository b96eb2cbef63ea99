// Package config defines the process configuration for crowdhook.
//
// Configuration is loaded once at startup and is immutable thereafter. Values
// come from the OS environment, optionally seeded from a .env file in the
// working directory. Any missing required value or invalid format aborts
// startup.
package config

import (
	"time"

	"crowdhook/internal/types"
)

// SecretString is an alias for types.SecretString so config consumers need not
// import types for secret fields.
type SecretString = types.SecretString

// Config is the top-level configuration struct. Sub-components receive only
// the subset they need.
type Config struct {
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev staging prod"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	Server        ServerConfig
	Webhook       WebhookConfig
	Tracker       TrackerConfig
	Slack         SlackConfig
	Channels      ChannelConfig
	Observability ObservabilityConfig

	// Build metadata (ldflags, not env).
	Build BuildInfo
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port        string `envconfig:"PORT" default:"3000" validate:"required,numeric"`
	MaxBodySize int64  `envconfig:"MAX_BODY_SIZE" default:"1048576" validate:"gt=0"`
}

// WebhookConfig holds the inbound webhook credential. Secret is the path
// segment Bugcrowd is configured to post to.
type WebhookConfig struct {
	Secret SecretString `envconfig:"HASH" validate:"required"`
}

// TrackerConfig identifies the Bugcrowd tracker used for deep links.
type TrackerConfig struct {
	Organization string `envconfig:"BUGCROWD_ORG" validate:"required"`
	Host         string `envconfig:"TRACKER_HOST" default:"tracker.bugcrowd.com" validate:"required"`
}

// SlackConfig holds Slack Web API settings.
type SlackConfig struct {
	BotToken SecretString  `envconfig:"SLACK_BOT_TOKEN" validate:"required"`
	APIURL   string        `envconfig:"SLACK_API_URL" default:"https://slack.com/api" validate:"required,url"`
	Timeout  time.Duration `envconfig:"SLACK_TIMEOUT" default:"10s" validate:"gt=0"`
}

// ChannelConfig maps each notification class to a Slack channel.
type ChannelConfig struct {
	NewBlocker              string `envconfig:"SLACK_NEW_BLOCKER_CHANNEL" validate:"required"`
	ResolvedBlocker         string `envconfig:"SLACK_RESOLVED_BLOCKER_CHANNEL" validate:"required"`
	NewSubmission           string `envconfig:"SLACK_NEW_SUBMISSION_CHANNEL" validate:"required"`
	PendingSubmissionUpdate string `envconfig:"SLACK_PENDING_SUBMISSION_UPDATE_CHANNEL" validate:"required"`
	DuplicateNotApplicable  string `envconfig:"SLACK_DUPLICATE_NA_CHANNEL" validate:"required"`
}

// ObservabilityConfig controls CloudWatch dispatch metrics.
type ObservabilityConfig struct {
	MetricsEnabled  bool   `envconfig:"METRICS_ENABLED" default:"false"`
	MetricNamespace string `envconfig:"METRIC_NAMESPACE" default:"Crowdhook"`
}

// BuildInfo holds build-time metadata injected via ldflags.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// ConfigErrorType categorizes configuration loading failures.
type ConfigErrorType string

const (
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates an environment value could not be parsed into its
	// target type.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
)
