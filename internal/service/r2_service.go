package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	config "github.com/maheshrc27/postpilot/configs"
)

type R2Service interface {
	Upload(ctx context.Context, key string, file []byte, contentType string) (string, error)
}

type r2Service struct {
	cfg config.Provider
}

func NewR2Service(cfg config.Provider) R2Service {
	return &r2Service{cfg: cfg}
}

func (r *r2Service) client(ctx context.Context, cfg config.R2) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID))
	}), nil
}

// Upload stores file under key in the configured bucket and returns its public URL.
func (r *r2Service) Upload(ctx context.Context, key string, file []byte, contentType string) (string, error) {
	cfg := r.cfg().R2
	if !cfg.Configured() {
		return "", notConfigured("R2")
	}

	client, err := r.client(ctx, cfg)
	if err != nil {
		return "", err
	}

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(cfg.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(file),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	return fmt.Sprintf("%s/%s", cfg.PublicURL, key), nil
}
