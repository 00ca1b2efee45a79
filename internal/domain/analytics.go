package domain

import "time"

// AnalyticsEntry represents a single click on a shortened URL. Entries are
// append-only: one entry is written per redirect, in the same transaction
// that increments URLRecord.ClickCount.
type AnalyticsEntry struct {
	ID          int64     `gorm:"primaryKey;column:id" json:"id"`
	URLRecordID int64     `gorm:"column:url_record_id;not null;index" json:"url_record_id"`
	Country     string    `gorm:"column:country;size:64" json:"country"`
	City        string    `gorm:"column:city;size:100" json:"city"`
	Region      string    `gorm:"column:region;size:100" json:"region"`
	Localtime   string    `gorm:"column:localtime;size:32" json:"localtime"`
	ClientIP    string    `gorm:"column:client_ip;size:45" json:"client_ip"`
	Timestamp   time.Time `gorm:"column:timestamp;autoCreateTime;index" json:"timestamp"`
	DeviceType  *string   `gorm:"column:device_type;size:10" json:"device_type,omitempty"`
	Browser     *string   `gorm:"column:browser;size:50" json:"browser,omitempty"`
	OS          *string   `gorm:"column:os;size:50" json:"os,omitempty"`
}

// TableName returns the table name used by GORM.
func (AnalyticsEntry) TableName() string {
	return "analytics_entries"
}
