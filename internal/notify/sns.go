// Package notify publishes out-of-band alerts for messages that need
// the seller's direct attention.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"replydesk/internal/common/logger"
	"replydesk/internal/models"
)

// Publisher is the minimal SNS surface used by the notifier, split out
// so tests can stub it.
type Publisher interface {
	Publish(ctx context.Context, input *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// HighRiskNotifier pushes an SNS alert whenever a high-risk buyer
// message (legal threat, fraud claim, off-platform lure) arrives.
// Publishing is fire-and-forget: a failed publish is logged, never
// surfaced.
type HighRiskNotifier struct {
	client   Publisher
	topicARN string
	logger   logger.Logger
}

func NewHighRiskNotifier(ctx context.Context, region, topicARN string, log logger.Logger) (*HighRiskNotifier, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &HighRiskNotifier{
		client:   sns.NewFromConfig(cfg),
		topicARN: topicARN,
		logger:   log.With(map[string]interface{}{"component": "notify"}),
	}, nil
}

// NewHighRiskNotifierWithClient wires a pre-built publisher (tests).
func NewHighRiskNotifierWithClient(client Publisher, topicARN string, log logger.Logger) *HighRiskNotifier {
	return &HighRiskNotifier{
		client:   client,
		topicARN: topicARN,
		logger:   log.With(map[string]interface{}{"component": "notify"}),
	}
}

type alertPayload struct {
	AccountID string `json:"accountId"`
	Intent    string `json:"intent"`
	Risk      string `json:"risk"`
	Preview   string `json:"preview"`
}

// Alert publishes a compact JSON alert with a bounded message preview.
func (n *HighRiskNotifier) Alert(accountID string, c models.ClassificationResult, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	preview := message
	if len(preview) > 140 {
		preview = preview[:140]
	}

	payload, _ := json.Marshal(alertPayload{
		AccountID: accountID,
		Intent:    string(c.Intent),
		Risk:      string(c.Risk),
		Preview:   preview,
	})

	_, err := n.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Subject:  aws.String("High-risk buyer message"),
		Message:  aws.String(string(payload)),
	})
	if err != nil {
		n.logger.Error("high-risk alert publish failed", map[string]interface{}{
			"accountId": accountID,
			"error":     err.Error(),
		})
	}
}
