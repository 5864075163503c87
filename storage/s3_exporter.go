package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"video-analyzer/core/models"
)

// S3Exporter uploads analysis reports to an S3 bucket as JSON
type S3Exporter struct {
	client *s3.Client
	bucket string
	region string
	prefix string
}

// NewS3Exporter creates an exporter backed by the default AWS credential
// chain.
func NewS3Exporter(ctx context.Context, bucket, region, prefix string) (*S3Exporter, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return &S3Exporter{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		region: region,
		prefix: prefix,
	}, nil
}

// ExportReport serializes the run state and uploads it under
// <prefix>/<jobID>.json, returning the object URL.
func (e *S3Exporter) ExportReport(ctx context.Context, jobID string, state *models.PipelineState) (string, error) {
	body, err := json.MarshalIndent(exportPayload(jobID, state), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize report: %w", err)
	}

	key := jobID + ".json"
	if e.prefix != "" {
		key = e.prefix + "/" + key
	}

	_, err = e.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload failed: %w", err)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", e.bucket, e.region, key), nil
}

type reportEnvelope struct {
	JobID    string                 `json:"job_id"`
	Status   models.PipelineStatus  `json:"status"`
	Progress float64                `json:"progress"`
	Results  map[string]interface{} `json:"results"`
}

func exportPayload(jobID string, state *models.PipelineState) reportEnvelope {
	results := make(map[string]interface{}, len(state.Results))
	for stage, outcome := range state.Results {
		if outcome == nil || !outcome.Success {
			continue
		}
		results[string(stage)] = outcome.Data
	}
	return reportEnvelope{
		JobID:    jobID,
		Status:   state.Status,
		Progress: state.Progress,
		Results:  results,
	}
}
