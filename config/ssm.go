package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

func newSSMClient(ctx context.Context, region string) (*ssm.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return ssm.NewFromConfig(awsCfg), nil
}

// FetchParameters reads every decrypted parameter under path. Keys are the last
// path segment, upper-cased, with dashes and dots turned into underscores.
func FetchParameters(ctx context.Context, client ssm.GetParametersByPathAPIClient, path string) (map[string]string, error) {
	params := make(map[string]string)
	paginator := ssm.NewGetParametersByPathPaginator(client, &ssm.GetParametersByPathInput{
		Path:           aws.String(path),
		Recursive:      aws.Bool(true),
		WithDecryption: aws.Bool(true),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("reading ssm parameters under %s: %w", path, err)
		}
		for _, p := range page.Parameters {
			name := ParameterEnvName(aws.ToString(p.Name))
			if name == "" {
				continue
			}
			params[name] = aws.ToString(p.Value)
		}
	}
	return params, nil
}

// ParameterEnvName maps "/portfolio/prod/openai-api-key" to "OPENAI_API_KEY".
func ParameterEnvName(name string) string {
	name = strings.TrimRight(name, "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.NewReplacer("-", "_", ".", "_").Replace(name)
	return strings.ToUpper(name)
}

// Overlay copies params into environ. Values already present in environ win.
func Overlay(environ map[string]string, params map[string]string) {
	for k, v := range params {
		if existing, ok := environ[k]; ok && existing != "" {
			continue
		}
		environ[k] = v
	}
}
