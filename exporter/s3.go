package exporter

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/Alexveeuk/Vepi/types"
)

// S3API is the slice of the S3 client the sink uses.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink archives exported data sets as CSV objects in an S3 bucket, for
// pipelines that keep a copy of each Vena extract.
type S3Sink struct {
	s3Client S3API
	bucket   string
	logger   *slog.Logger
}

// NewS3Sink returns a sink writing to bucket. Pass an aws.Config from
// api.NewAWSConfig or config.LoadDefaultConfig.
func NewS3Sink(awsCfg aws.Config, bucket string, logger *slog.Logger) *S3Sink {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &S3Sink{
		s3Client: s3.NewFromConfig(awsCfg),
		bucket:   bucket,
		logger:   logger,
	}
}

// Put serializes the data set with the same CSV rules as file submission
// and uploads it to s3://{bucket}/{key}.
func (s *S3Sink) Put(ctx context.Context, key string, ds *types.DataSet) error {
	data := ds.CSVBytes()

	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("text/csv; charset=utf-8"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}

	s.logger.Info("export archived",
		"bucket", s.bucket, "key", key, "bytes", len(data), "rows", len(ds.Rows))

	return nil
}
