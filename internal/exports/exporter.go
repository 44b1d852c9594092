// Package exports writes periodic score snapshots to object storage.
// Each sweep appends a dated CSV per organization, preserving score
// history outside the replace-in-place metrics table.
package exports

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"convoscore_backend/internal/conversations/domain"
	"convoscore_backend/internal/conversations/insight"
	"convoscore_backend/internal/conversations/repository"
	"convoscore_backend/platform/config"
	"convoscore_backend/platform/logger"
)

const exportPageSize = 200

// Exporter uploads CSV score snapshots to a MinIO bucket.
type Exporter struct {
	client *minio.Client
	bucket string
	repo   *repository.Repository
	log    *logger.Logger
}

// NewExporter creates the snapshot exporter. The export config must be
// enabled; callers gate on cfg.IsExportEnabled().
func NewExporter(cfg config.ExportConfig, pool *pgxpool.Pool, log *logger.Logger) (*Exporter, error) {
	if !cfg.IsExportEnabled() {
		return nil, fmt.Errorf("object storage is not configured")
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &Exporter{
		client: client,
		bucket: cfg.GetMinioBucketScoreSnapshots(),
		repo:   repository.New(pool),
		log:    log,
	}, nil
}

// ExportAll writes one snapshot file per organization.
func (e *Exporter) ExportAll(ctx context.Context) error {
	if err := e.ensureBucket(ctx); err != nil {
		return err
	}

	orgIDs, err := e.repo.ListOrganizationIDs(ctx)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, orgID := range orgIDs {
		if err := e.exportOrganization(ctx, orgID, now); err != nil {
			e.log.Error("snapshot export failed for organization", "organizationId", orgID, "error", err)
		}
	}

	return nil
}

func (e *Exporter) exportOrganization(ctx context.Context, orgID uuid.UUID, now time.Time) error {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"conversation_id", "consumer_name", "consumer_phone", "score", "tier", "total_messages", "last_lead_message_at", "computed_at"}); err != nil {
		return err
	}

	offset := 0
	rowCount := 0
	for {
		items, _, err := e.repo.ListScored(ctx, orgID, repository.ListScoredParams{
			Limit:  exportPageSize,
			Offset: offset,
		})
		if err != nil {
			return err
		}
		if len(items) == 0 {
			break
		}

		for _, item := range items {
			if err := writer.Write(snapshotRow(item)); err != nil {
				return err
			}
			rowCount++
		}

		offset += len(items)
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}

	objectName := fmt.Sprintf("%s/%s.csv", now.Format("2006/01/02"), orgID)
	_, err := e.client.PutObject(ctx, e.bucket, objectName, bytes.NewReader(buf.Bytes()), int64(buf.Len()), minio.PutObjectOptions{
		ContentType: "text/csv",
	})
	if err != nil {
		return fmt.Errorf("failed to upload snapshot %s: %w", objectName, err)
	}

	e.log.Info("score snapshot exported", "organizationId", orgID, "object", objectName, "rows", rowCount)
	return nil
}

func snapshotRow(item repository.ScoredConversation) []string {
	score := ""
	tier := string(domain.TierInactive)
	if item.BasicLeadScore != nil {
		score = strconv.Itoa(*item.BasicLeadScore)
		tier = string(insight.TierFor(*item.BasicLeadScore))
	}

	lastLead := ""
	if item.LastLeadMessageAt != nil {
		lastLead = item.LastLeadMessageAt.UTC().Format(time.RFC3339)
	}

	return []string{
		item.Conversation.ID.String(),
		item.Conversation.ConsumerName,
		item.Conversation.ConsumerPhone,
		score,
		tier,
		strconv.Itoa(item.TotalMessages),
		lastLead,
		item.ComputedAt.UTC().Format(time.RFC3339),
	}
}

func (e *Exporter) ensureBucket(ctx context.Context) error {
	exists, err := e.client.BucketExists(ctx, e.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		if err := e.client.MakeBucket(ctx, e.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", e.bucket, err)
		}
	}

	return nil
}
