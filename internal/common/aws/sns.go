package aws

import (
	"context"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// SNSService is the subset of the SNS API used for SMS delivery.
type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func NewSNSClient(ctx context.Context, region string) (*sns.Client, error) {
	cfg, err := loadConfig(ctx, region)
	if err != nil {
		return nil, err
	}
	return sns.NewFromConfig(cfg), nil
}

// NewSMSInput builds a transactional SMS publish request.
func NewSMSInput(phone, message string) *sns.PublishInput {
	return &sns.PublishInput{
		PhoneNumber: awssdk.String(phone),
		Message:     awssdk.String(message),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"AWS.SNS.SMS.SMSType": {
				DataType:    awssdk.String("String"),
				StringValue: awssdk.String("Transactional"),
			},
		},
	}
}
