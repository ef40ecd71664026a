package minio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"github.com/turtacn/syclop/internal/domain/run"
	"github.com/turtacn/syclop/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/syclop/pkg/errors"
)

const (
	reportPrefix      = "runs/"
	reportContentType = "application/json"
)

// ReportArchive stores run reports as JSON objects.
type ReportArchive struct {
	client *Client
	logger logging.Logger
}

var _ run.ReportArchive = (*ReportArchive)(nil)

func NewReportArchive(client *Client, log logging.Logger) *ReportArchive {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &ReportArchive{client: client, logger: log}
}

// ReportKey returns runs/<yyyy>/<mm>/<dd>/<run id>.json for a run created at
// createdAt.
func ReportKey(id uuid.UUID, createdAt time.Time) string {
	return fmt.Sprintf("%s%s/%s.json", reportPrefix, createdAt.UTC().Format("2006/01/02"), id)
}

// StoreReport uploads report and returns its object key.
func (a *ReportArchive) StoreReport(ctx context.Context, report *run.Report) (string, error) {
	if report == nil || report.Run == nil {
		return "", errors.InvalidParam("report must carry a run")
	}
	data, err := json.Marshal(report)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode run report")
	}

	key := ReportKey(report.Run.ID, report.Run.CreatedAt)
	opts := minio.PutObjectOptions{
		ContentType: reportContentType,
		UserMetadata: map[string]string{
			"scenario": report.Run.Scenario,
			"status":   string(report.Run.Status),
		},
	}
	info, err := a.client.api.PutObject(ctx, a.client.bucket, key, bytes.NewReader(data), int64(len(data)), opts)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeRunArchiveFailed, "failed to upload run report").
			WithDetail("run_id=" + report.Run.ID.String())
	}

	a.logger.Debug("Archived run report",
		logging.String(logging.FieldRunID, report.Run.ID.String()),
		logging.String("key", info.Key),
		logging.Int64("size", info.Size))
	return key, nil
}

// ReportURL returns a presigned GET URL for key, valid for expiry.
func (a *ReportArchive) ReportURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if _, err := a.client.api.StatObject(ctx, a.client.bucket, key, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return "", errors.NotFound("run report not found").WithDetail(key)
		}
		return "", errors.Wrap(err, errors.ErrCodeExternalService, "failed to stat run report")
	}
	u, err := a.client.api.PresignedGetObject(ctx, a.client.bucket, key, expiry, nil)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeExternalService, "failed to presign run report")
	}
	return u.String(), nil
}
