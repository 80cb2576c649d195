package postgres

import (
	"context"
	"fmt"
	"time"

	"impulsetracker/internal/records"

	"gorm.io/gorm/clause"
)

// WriteImpulse implements records.Sink.
func (p *PostgresClient) WriteImpulse(ctx context.Context, r records.Impulse) error {
	if err := p.DB.WithContext(ctx).Create(ToImpulseRecord(r)).Error; err != nil {
		return fmt.Errorf("insert impulse: %w", err)
	}
	return nil
}

// WriteCheck implements records.Sink. Rows already stored for the same
// campaign, delay and venue are skipped.
func (p *PostgresClient) WriteCheck(ctx context.Context, r records.Check) error {
	rows, err := ToCheckRecords(r)
	if err != nil {
		return fmt.Errorf("convert check: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}

	tx := p.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "campaign_id"},
			{Name: "delay_ms"},
			{Name: "venue"},
		},
		DoNothing: true,
	}).Create(&rows)

	if tx.Error != nil {
		return fmt.Errorf("insert cex checks: %w", tx.Error)
	}
	return nil
}

func (p *PostgresClient) ImpulsesByToken(ctx context.Context, token string) ([]ImpulseRecord, error) {
	var out []ImpulseRecord
	err := p.DB.WithContext(ctx).
		Where("token = ?", token).
		Order("detected_at").
		Find(&out).Error
	return out, err
}

func (p *PostgresClient) ChecksByCampaign(ctx context.Context, campaignID string) ([]CexCheckRecord, error) {
	var out []CexCheckRecord
	err := p.DB.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Order("delay_ms, venue").
		Find(&out).Error
	return out, err
}

// DeleteBefore removes records older than before from both tables.
func (p *PostgresClient) DeleteBefore(ctx context.Context, before time.Time) error {
	db := p.DB.WithContext(ctx)
	if err := db.Where("detected_at < ?", before).Delete(&ImpulseRecord{}).Error; err != nil {
		return err
	}
	return db.Where("checked_at < ?", before).Delete(&CexCheckRecord{}).Error
}
