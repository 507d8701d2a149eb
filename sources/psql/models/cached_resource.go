package models

import "time"

// CachedResource is one durable stored response, keyed by cache version and
// request URL. Headers are serialized JSON.
type CachedResource struct {
	Version    string    `gorm:"primaryKey;size:64"`
	URL        string    `gorm:"primaryKey;size:2048;column:url"`
	Status     int       `gorm:"not null"`
	HeaderJSON string    `gorm:"column:header_json;type:text"`
	Body       []byte    `gorm:"type:bytea"`
	FetchedAt  time.Time `gorm:"not null"`
}
