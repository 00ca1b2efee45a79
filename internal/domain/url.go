package domain

import "time"

// URLRecord represents one shortened URL together with its accumulated
// click analytics.
type URLRecord struct {
	ID           int64            `gorm:"primaryKey;column:id" json:"id"`
	ShortID      string           `gorm:"column:short_id;size:64;not null;uniqueIndex" json:"short_id"`
	OriginalURL  string           `gorm:"column:original_url;type:text;not null;index" json:"original_url"`
	ShortURL     string           `gorm:"column:short_url;type:text;not null" json:"short_url"`
	CustomDomain *string          `gorm:"column:custom_domain;size:255" json:"custom_domain,omitempty"`
	CustomSlug   *string          `gorm:"column:custom_slug;size:64" json:"custom_slug,omitempty"`
	OwnerID      *string          `gorm:"column:owner_id;size:64;index" json:"owner_id,omitempty"`
	ClickCount   int64            `gorm:"column:click_count;not null;default:0" json:"click_count"`
	Analytics    []AnalyticsEntry `gorm:"foreignKey:URLRecordID" json:"analytics,omitempty"`
	QRCode       []byte           `gorm:"column:qr_code;type:bytea" json:"-"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name used by GORM.
func (URLRecord) TableName() string {
	return "url_records"
}

// HasQRCode reports whether a QR code image has already been generated
// and persisted for this record.
func (u *URLRecord) HasQRCode() bool {
	return len(u.QRCode) > 0
}
