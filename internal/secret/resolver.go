// Package secret resolves runtime secrets. Production reads SSM Parameter
// Store; dev mode reads environment variables under the same names.
package secret

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// Resolver retrieves secret values by parameter name, e.g.
// "/formdesk/jwt-secret".
type Resolver interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// SSMClient is the slice of *ssm.Client the SSMResolver needs.
type SSMClient interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// SSMResolver reads SecureString parameters from Systems Manager.
type SSMResolver struct {
	client SSMClient
}

func NewSSMResolver(client SSMClient) Resolver {
	return &SSMResolver{client: client}
}

func (r *SSMResolver) GetSecret(ctx context.Context, name string) (string, error) {
	out, err := r.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("get parameter %q: %w", name, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("parameter %q resolved empty", name)
	}
	return *out.Parameter.Value, nil
}

// EnvResolver maps each parameter name onto an environment variable:
// the last path segment, uppercased, hyphens to underscores, so
// "/formdesk/drive-refresh-token" reads DRIVE_REFRESH_TOKEN.
type EnvResolver struct{}

func NewEnvResolver() Resolver {
	return &EnvResolver{}
}

func (r *EnvResolver) GetSecret(_ context.Context, name string) (string, error) {
	key := paramNameToEnvVar(name)
	if val := os.Getenv(key); val != "" {
		return val, nil
	}
	return "", fmt.Errorf("%s is not set (wanted for param %q)", key, name)
}

func paramNameToEnvVar(name string) string {
	segments := strings.Split(name, "/")
	last := segments[len(segments)-1]
	return strings.ToUpper(strings.ReplaceAll(last, "-", "_"))
}
