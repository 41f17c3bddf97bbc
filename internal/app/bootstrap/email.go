package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	appconfig "github.com/wolfman30/aesthetics-booking/internal/config"
	"github.com/wolfman30/aesthetics-booking/internal/notify"
	"github.com/wolfman30/aesthetics-booking/pkg/logging"
)

// BuildEmailSender selects the booking email transport from EMAIL_PROVIDER.
// Misconfigured providers fall back to the stub sender so bookings keep working.
func BuildEmailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (notify.EmailSender, string, error) {
	if cfg == nil {
		return nil, "", fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	switch cfg.EmailProvider {
	case "sendgrid":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.EmailFromAddress,
			FromName:  cfg.EmailFromName,
		}, logger)
		if sender == nil {
			logger.Warn("sendgrid selected but SENDGRID_API_KEY is empty; using stub email sender")
			return notify.NewStubEmailSender(logger), "stub", nil
		}
		return sender, "sendgrid", nil
	case "ses":
		awsCfg, err := LoadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, "", err
		}
		client := sesv2.NewFromConfig(awsCfg, func(o *sesv2.Options) {
			if cfg.AWSEndpointOverride != "" {
				o.BaseEndpoint = aws.String(cfg.AWSEndpointOverride)
			}
		})
		return notify.NewSESSender(client, notify.SESConfig{
			FromEmail:        cfg.EmailFromAddress,
			FromName:         cfg.EmailFromName,
			ConfigurationSet: cfg.SESConfigurationSet,
		}, logger), "ses", nil
	case "", "stub":
		return notify.NewStubEmailSender(logger), "stub", nil
	default:
		return nil, "", fmt.Errorf("bootstrap: unknown EMAIL_PROVIDER %q", cfg.EmailProvider)
	}
}

// LoadAWSConfig loads the default AWS config for the configured region. With
// an endpoint override (a local emulator) static dummy credentials are used.
func LoadAWSConfig(ctx context.Context, cfg *appconfig.Config) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AWSRegion),
	}
	if strings.TrimSpace(cfg.AWSEndpointOverride) != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider("local", "local", ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("bootstrap: load aws config: %w", err)
	}
	return awsCfg, nil
}
