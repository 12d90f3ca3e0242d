package sns

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/waitlist-api/internal/config"
	"github.com/waitlist-api/internal/infrastructure/awsconn"
)

// AlertPublisher fans out operational alerts about new signups.
// Implementations are best-effort; callers never fail a request on a
// publish error.
type AlertPublisher interface {
	PublishSignup(ctx context.Context, email string) error
}

type publisher struct {
	client   *sns.Client
	topicARN string
}

// NewPublisher creates an SNS-backed alert publisher for the configured
// topic. Returns an error when the topic ARN is unset or AWS config cannot
// be loaded; callers treat that as "alerts disabled".
func NewPublisher(ctx context.Context, cfg *config.Config) (AlertPublisher, error) {
	if cfg.SNSTopicARN == "" {
		return nil, fmt.Errorf("SNS_TOPIC_ARN is not set")
	}
	awsCfg, err := awsconn.Load(ctx, cfg)
	if err != nil {
		return nil, err
	}
	client := sns.NewFromConfig(awsCfg, func(o *sns.Options) {
		if cfg.AWSEndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
		}
	})
	return &publisher{client: client, topicARN: cfg.SNSTopicARN}, nil
}

func (p *publisher) PublishSignup(ctx context.Context, email string) error {
	message := fmt.Sprintf("New waitlist signup: %s", email)
	_, err := p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(message),
	})
	return err
}
