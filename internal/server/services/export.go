package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/dashkeeper/internal/common"
	"github.com/dmitrijs2005/dashkeeper/internal/logging"
	"github.com/dmitrijs2005/dashkeeper/internal/server/auth"
	sc "github.com/dmitrijs2005/dashkeeper/internal/server/config"
	"github.com/dmitrijs2005/dashkeeper/internal/server/repositories/repomanager"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// exportURLValidity bounds how long a presigned export link works.
const exportURLValidity = 15 * time.Minute

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// ExportService stores dashboard snapshots in object storage and hands out
// temporary download links.
type ExportService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
	log         logging.Logger
}

func NewExportService(db *sql.DB, m repomanager.RepositoryManager, cfg *sc.Config, log logging.Logger) *ExportService {
	return &ExportService{db: db, repomanager: m, config: cfg, log: log.With("module", "export")}
}

// ExportKey returns the object key for a new snapshot of dashboard id.
func ExportKey(owner, id string) string {
	return fmt.Sprintf("dashboards/%s/%s/%v.json", owner, id, uuid.New())
}

func (s *ExportService) getClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}

// Export uploads a JSON snapshot of an owned dashboard and returns a
// presigned GET URL for it.
func (s *ExportService) Export(ctx context.Context, p auth.Principal, id string) (string, error) {
	notFound := common.NotFound(msgDashboardSelectedNotFound)
	if !validID(id) {
		return "", notFound
	}

	d, err := s.repomanager.Dashboards(s.db).GetOwned(ctx, id, p.ID)
	if err != nil {
		return "", classify(err, notFound)
	}

	body, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("error encoding dashboard: %w", err)
	}

	client, err := s.getClient(ctx)
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket
	key := ExportKey(p.ID, d.ID)

	_, err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("error uploading export: %w", err)
	}

	req, err := presignGetObject(newS3PresignClient(client), ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(exportURLValidity))
	if err != nil {
		return "", fmt.Errorf("error presigning export: %w", err)
	}

	s.log.Info(ctx, "dashboard exported", "dashboard_id", d.ID, "key", key)
	return req.URL, nil
}
