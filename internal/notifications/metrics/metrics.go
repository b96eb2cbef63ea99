// Package metrics records webhook dispatch outcomes.
//
// Metrics emitted (CloudWatch):
//   - WebhookDispatch: Dims {EventKey, Result} -- one per handled webhook
//   - NotifyLatency: Dims {EventKey} -- duration of the chat post
package metrics

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"crowdhook/internal/types"
)

// Metric and dimension names.
const (
	DefaultNamespace = "Crowdhook"

	MetricDispatch      = "WebhookDispatch"
	MetricNotifyLatency = "NotifyLatency"

	DimEventKey = "EventKey"
	DimResult   = "Result"

	// EventKeyOther stands in for every unrecognized event key.
	EventKeyOther = "other"
)

// Result categorizes a dispatch outcome.
type Result string

const (
	// ResultDelivered: the notification was posted.
	ResultDelivered Result = "delivered"
	// ResultFailed: the notifier reported an error.
	ResultFailed Result = "failed"
	// ResultIgnored: the event key is not one we handle.
	ResultIgnored Result = "ignored"
	// ResultSuppressed: handled, but the handler chose not to post.
	ResultSuppressed Result = "suppressed"
)

// Recorder abstracts outcome telemetry.
type Recorder interface {
	RecordDispatch(ctx context.Context, eventKey string, result Result)
	RecordLatency(ctx context.Context, eventKey string, duration time.Duration)
}

// CloudWatchClient abstracts the CloudWatch PutMetricData operation for testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

var _ Recorder = (*CloudWatchRecorder)(nil)

// CloudWatchRecorder publishes dispatch metrics to CloudWatch. Publishing
// failures are logged and otherwise ignored.
type CloudWatchRecorder struct {
	client    CloudWatchClient
	namespace string
	logger    types.Logger
}

// NewCloudWatchRecorder creates a recorder for the given namespace. An empty
// namespace falls back to DefaultNamespace.
func NewCloudWatchRecorder(client CloudWatchClient, namespace string, logger types.Logger) *CloudWatchRecorder {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if logger == nil {
		logger = types.NopLogger{}
	}
	return &CloudWatchRecorder{
		client:    client,
		namespace: namespace,
		logger:    logger,
	}
}

// RecordDispatch emits a WebhookDispatch count with EventKey and Result dimensions.
func (m *CloudWatchRecorder) RecordDispatch(ctx context.Context, eventKey string, result Result) {
	input := &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: aws.String(MetricDispatch),
				Value:      aws.Float64(1),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: []cwtypes.Dimension{
					{
						Name:  aws.String(DimEventKey),
						Value: aws.String(dimensionValue(eventKey)),
					},
					{
						Name:  aws.String(DimResult),
						Value: aws.String(string(result)),
					},
				},
			},
		},
	}

	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.Error("failed to record dispatch metric",
			"error", err.Error(),
			"event_key", eventKey,
			"result", string(result),
		)
	}
}

// RecordLatency emits the chat-post latency in milliseconds.
func (m *CloudWatchRecorder) RecordLatency(ctx context.Context, eventKey string, duration time.Duration) {
	input := &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: aws.String(MetricNotifyLatency),
				Value:      aws.Float64(float64(duration.Milliseconds())),
				Unit:       cwtypes.StandardUnitMilliseconds,
				Dimensions: []cwtypes.Dimension{
					{
						Name:  aws.String(DimEventKey),
						Value: aws.String(dimensionValue(eventKey)),
					},
				},
			},
		},
	}

	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.Error("failed to record latency metric",
			"error", err.Error(),
			"event_key", eventKey,
			"duration_ms", duration.Milliseconds(),
		)
	}
}

// CloudWatch rejects empty dimension values.
func dimensionValue(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}

// Nop discards every metric. Used when metrics are disabled.
type Nop struct{}

func (Nop) RecordDispatch(context.Context, string, Result)        {}
func (Nop) RecordLatency(context.Context, string, time.Duration) {}

var _ Recorder = Nop{}
