// Pacote s3 publica fotografias dos resultados das sessões em um bucket compatível com S3 (AWS ou MinIO).
package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/marcelojr/votacao-campus/internal/domain"
)

var ErrBucketObrigatorio = errors.New("s3: bucket obrigatorio")

type Config struct {
	Bucket          string
	Region          string
	Endpoint        string // opcional, ex.: MinIO local
	PathStyle       bool
	AccessKeyID     string
	SecretAccessKey string
	// HTTPClient substitui o transporte padrão; usado nos testes.
	HTTPClient s3.HTTPClient
}

// SnapshotPublisher grava o JSON de SessionStats em sessions/{id}/stats-{ts}.json.
type SnapshotPublisher struct {
	client *s3.Client
	bucket string
}

func NewSnapshotPublisher(ctx context.Context, cfg Config) (*SnapshotPublisher, error) {
	if cfg.Bucket == "" {
		return nil, ErrBucketObrigatorio
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("s3: carregar config aws: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.HTTPClient != nil {
			o.HTTPClient = cfg.HTTPClient
		}
	})
	return &SnapshotPublisher{client: client, bucket: cfg.Bucket}, nil
}

// SnapshotKey monta a chave do objeto; o instante é o ComputedAt das estatísticas.
func SnapshotKey(id domain.SessionID, at time.Time) string {
	return fmt.Sprintf("sessions/%s/stats-%s.json", id, at.UTC().Format("20060102T150405Z"))
}

func (p *SnapshotPublisher) PublishStats(ctx context.Context, stats domain.SessionStats) (string, error) {
	body, err := json.Marshal(stats)
	if err != nil {
		return "", fmt.Errorf("s3: serializar estatisticas: %w", err)
	}
	key := SnapshotKey(stats.SessionID, stats.ComputedAt)
	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
		Metadata:    map[string]string{"session-id": string(stats.SessionID)},
	})
	if err != nil {
		return "", fmt.Errorf("s3: publicar %s: %w", key, err)
	}
	return key, nil
}

// Ping confirma acesso ao bucket; usado pelo /readyz quando a publicação está habilitada.
func (p *SnapshotPublisher) Ping(ctx context.Context) error {
	if _, err := p.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(p.bucket)}); err != nil {
		return fmt.Errorf("s3: head bucket %s: %w", p.bucket, err)
	}
	return nil
}

var _ domain.SnapshotPublisher = (*SnapshotPublisher)(nil)
