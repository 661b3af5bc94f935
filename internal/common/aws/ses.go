package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESService is the subset of the SES API the digest sender needs.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

func loadConfig(ctx context.Context, region string) (awssdk.Config, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return awssdk.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return cfg, nil
}

func NewSESClient(ctx context.Context, region string) (*ses.Client, error) {
	cfg, err := loadConfig(ctx, region)
	if err != nil {
		return nil, err
	}
	return ses.NewFromConfig(cfg), nil
}

// NewEmailInput builds a UTF-8 email with a text body and an optional HTML body.
func NewEmailInput(from, to, subject, textBody, htmlBody string) *ses.SendEmailInput {
	body := &types.Body{
		Text: &types.Content{Data: awssdk.String(textBody), Charset: awssdk.String("UTF-8")},
	}
	if htmlBody != "" {
		body.Html = &types.Content{Data: awssdk.String(htmlBody), Charset: awssdk.String("UTF-8")}
	}
	return &ses.SendEmailInput{
		Source:      awssdk.String(from),
		Destination: &types.Destination{ToAddresses: []string{to}},
		Message: &types.Message{
			Subject: &types.Content{Data: awssdk.String(subject), Charset: awssdk.String("UTF-8")},
			Body:    body,
		},
	}
}
