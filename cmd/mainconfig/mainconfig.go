package mainconfig

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	appconfig "github.com/brightsmile/outreach/internal/config"
)

// localStackServices are the services the dev stack emulates. Bedrock is not
// among them, so the generic AWS_ENDPOINT_OVERRIDE never captures model
// calls; a Bedrock proxy gets its own knob.
var localStackServices = map[string]struct{}{
	sqs.ServiceID:      {},
	dynamodb.ServiceID: {},
	s3.ServiceID:       {},
	sesv2.ServiceID:    {},
}

// LoadAWSConfig centralizes AWS SDK initialization so every binary shares the
// same LocalStack/production wiring.
func LoadAWSConfig(ctx context.Context, cfg *appconfig.Config) (aws.Config, error) {
	loaders := []func(*config.LoadOptions) error{config.WithRegion(cfg.AWSRegion)}
	if cfg.AWSMaxRetries > 0 {
		loaders = append(loaders, config.WithRetryMaxAttempts(cfg.AWSMaxRetries))
	}
	if strings.TrimSpace(cfg.AWSAccessKeyID) != "" && strings.TrimSpace(cfg.AWSSecretAccessKey) != "" {
		loaders = append(loaders, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return aws.Config{}, err
	}

	if resolver := endpointResolver(cfg); resolver != nil {
		awsCfg.EndpointResolverWithOptions = resolver
	}
	return awsCfg, nil
}

// endpointResolver routes the emulated services at the generic override and
// bedrockruntime at its dedicated one. Nil when no override is configured,
// which leaves the SDK's default resolution in place.
func endpointResolver(cfg *appconfig.Config) aws.EndpointResolverWithOptionsFunc {
	general := strings.TrimSpace(cfg.AWSEndpointOverride)
	bedrock := strings.TrimSpace(cfg.BedrockEndpointOverride)
	if general == "" && bedrock == "" {
		return nil
	}
	return func(service, region string, _ ...interface{}) (aws.Endpoint, error) {
		url := ""
		switch {
		case service == bedrockruntime.ServiceID && bedrock != "":
			url = bedrock
		case general != "":
			if _, ok := localStackServices[service]; ok {
				url = general
			}
		}
		if url == "" {
			return aws.Endpoint{}, &aws.EndpointNotFoundError{}
		}
		return aws.Endpoint{
			URL:           url,
			PartitionID:   "aws",
			SigningRegion: cfg.AWSRegion,
		}, nil
	}
}
