package store

import (
	"time"

	"gorm.io/gorm"
)

const (
	tableName = "crypto_report"
	createdAt = "CreatedAt"
)

// Table is the crypto_report row.
type Table struct {
	ID            int64     `gorm:"column:id;primaryKey;autoIncrement"`
	HTMLContent   string    `gorm:"column:html_content;type:longtext;not null"`
	CSSContent    *string   `gorm:"column:css_content;type:longtext"`
	JSContent     *string   `gorm:"column:js_content;type:longtext"`
	HTMLContentEn *string   `gorm:"column:html_content_en;type:longtext"`
	JSContentEn   *string   `gorm:"column:js_content_en;type:longtext"`
	CreatedAt     time.Time `gorm:"column:created_at;not null"`
}

func (Table) TableName() string {
	return tableName
}

func (Table) BeforeCreate(tx *gorm.DB) (err error) {
	tx.Statement.SetColumn(createdAt, time.Now().UTC())
	return
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func tableFrom(r NewReport) Table {
	return Table{
		HTMLContent:   r.HTML,
		CSSContent:    optional(r.CSS),
		JSContent:     optional(r.JS),
		HTMLContentEn: optional(r.HTMLEn),
		JSContentEn:   optional(r.JSEn),
	}
}

func (t Table) report() Report {
	return Report{
		ID:        t.ID,
		HTML:      t.HTMLContent,
		CSS:       deref(t.CSSContent),
		JS:        deref(t.JSContent),
		HTMLEn:    deref(t.HTMLContentEn),
		JSEn:      deref(t.JSContentEn),
		CreatedAt: t.CreatedAt,
	}
}
