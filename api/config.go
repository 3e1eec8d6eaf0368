// Package api provides the authenticated HTTP transport for the Vena
// public API.
//
// It includes the client configuration and construction, basic-auth
// request helpers, multipart file upload, typed API errors, and optional
// credential loading from the environment or AWS SSM Parameter Store.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// Environment variables understood by LoadConfigFromEnv.
const (
	EnvHub        = "VENA_HUB"
	EnvAPIUser    = "VENA_API_USER"
	EnvAPIKey     = "VENA_API_KEY"
	EnvTemplateID = "VENA_TEMPLATE_ID"
	EnvModelID    = "VENA_MODEL_ID"
	EnvBaseURL    = "VENA_BASE_URL"
)

// DefaultSSMPrefix is the Parameter Store path prefix credentials are read
// from when none is configured.
const DefaultSSMPrefix = "/vena"

// Config carries everything needed to construct a Client.
type Config struct {
	// Hub is the Vena deployment identifier embedded in the API host,
	// e.g. "us2" for https://us2.vena.io.
	Hub string

	// APIUser and APIKey are the basic-auth credential pair issued by
	// Vena for API access.
	APIUser string
	APIKey  string

	// TemplateID identifies the ETL template jobs are submitted to.
	TemplateID string

	// ModelID identifies the data model for exports and hierarchy
	// retrieval. Optional: when empty, model-scoped operations fail with
	// a ConfigError before touching the network.
	ModelID string

	// BaseURL overrides the derived https://{hub}.vena.io/api/public/v1
	// endpoint. Tests point it at a local server.
	BaseURL string

	// HTTPClient overrides the transport. The default client carries no
	// timeout.
	HTTPClient *http.Client

	// Logger receives request-level diagnostics. Defaults to a discard
	// logger.
	Logger *slog.Logger
}

// Validate checks that the required fields are set.
func (c *Config) Validate() error {
	if c.Hub == "" {
		return &ConfigError{Field: "hub"}
	}

	if c.APIUser == "" {
		return &ConfigError{Field: "api user"}
	}

	if c.APIKey == "" {
		return &ConfigError{Field: "api key"}
	}

	if c.TemplateID == "" {
		return &ConfigError{Field: "template id"}
	}

	return nil
}

// Credentials is the Vena basic-auth pair.
type Credentials struct {
	APIUser string
	APIKey  string
}

// LoadConfigFromEnv builds a Config from VENA_* environment variables:
//   - VENA_HUB, VENA_API_USER, VENA_API_KEY, VENA_TEMPLATE_ID (required)
//   - VENA_MODEL_ID (optional, for exports and hierarchy retrieval)
//   - VENA_BASE_URL (optional endpoint override)
//
// Missing required variables surface as a ConfigError when the Config is
// passed to NewClient.
func LoadConfigFromEnv() Config {
	return Config{
		Hub:        os.Getenv(EnvHub),
		APIUser:    os.Getenv(EnvAPIUser),
		APIKey:     os.Getenv(EnvAPIKey),
		TemplateID: os.Getenv(EnvTemplateID),
		ModelID:    os.Getenv(EnvModelID),
		BaseURL:    os.Getenv(EnvBaseURL),
	}
}

// LoadCredentialsFromSSM loads the Vena API credential pair from AWS SSM
// Parameter Store. It fetches, with decryption:
//   - {prefix}/{hub}/api_user
//   - {prefix}/{hub}/api_key
//
// Prefix defaults to DefaultSSMPrefix when empty, and the VENA_SSM_PREFIX
// environment variable overrides it.
func LoadCredentialsFromSSM(ctx context.Context, awsCfg aws.Config, prefix, hub string) (Credentials, error) {
	if prefix == "" {
		prefix = getEnvOrDefault("VENA_SSM_PREFIX", DefaultSSMPrefix)
	}

	ssmClient := ssm.NewFromConfig(awsCfg)

	userParam := fmt.Sprintf("%s/%s/api_user", prefix, hub)
	userResp, err := ssmClient.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(userParam),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to get api user from SSM: %w", err)
	}

	keyParam := fmt.Sprintf("%s/%s/api_key", prefix, hub)
	keyResp, err := ssmClient.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(keyParam),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to get api key from SSM: %w", err)
	}

	return Credentials{
		APIUser: *userResp.Parameter.Value,
		APIKey:  *keyResp.Parameter.Value,
	}, nil
}

// NewAWSConfig creates an AWS config with static credentials, used by
// LoadCredentialsFromSSM and the S3 export sink.
func NewAWSConfig(ctx context.Context, accessKeyID, secretAccessKey, region string) (aws.Config, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKeyID,
			secretAccessKey,
			"",
		)),
	)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// Validate credentials
	stsClient := sts.NewFromConfig(awsCfg)
	if _, err := stsClient.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{}); err != nil {
		return aws.Config{}, fmt.Errorf("invalid AWS credentials: %w", err)
	}

	return awsCfg, nil
}

// getEnvOrDefault returns the environment variable value or a default.
func getEnvOrDefault(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultValue
}
