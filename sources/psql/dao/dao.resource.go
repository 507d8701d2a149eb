package dao

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"gorm.io/gorm"

	"nova/services/offline"
	"nova/sources/psql/models"
)

// ResourceDAO persists cached shell responses in postgres. It implements
// offline.ResourceStore.
type ResourceDAO struct {
	DB *gorm.DB
}

func NewResourceDAO(db *gorm.DB) *ResourceDAO {
	return &ResourceDAO{DB: db}
}

func (dao *ResourceDAO) Get(ctx context.Context, version, url string) (*offline.Resource, error) {
	var row models.CachedResource
	err := dao.DB.WithContext(ctx).
		Where("version = ? AND url = ?", version, url).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, offline.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	if row.HeaderJSON != "" {
		if err := json.Unmarshal([]byte(row.HeaderJSON), &header); err != nil {
			return nil, err
		}
	}

	return &offline.Resource{
		Version:   row.Version,
		URL:       row.URL,
		Status:    row.Status,
		Header:    header,
		Body:      row.Body,
		FetchedAt: row.FetchedAt,
	}, nil
}

func (dao *ResourceDAO) Put(ctx context.Context, res *offline.Resource) error {
	headerJSON, err := json.Marshal(res.Header)
	if err != nil {
		return err
	}

	row := models.CachedResource{
		Version:    res.Version,
		URL:        res.URL,
		Status:     res.Status,
		HeaderJSON: string(headerJSON),
		Body:       res.Body,
		FetchedAt:  res.FetchedAt,
	}
	// Save upserts on the composite primary key, overwriting the prior
	// entry for the URL.
	return dao.DB.WithContext(ctx).Save(&row).Error
}

func (dao *ResourceDAO) PurgeExcept(ctx context.Context, version string) (int64, error) {
	result := dao.DB.WithContext(ctx).
		Where("version <> ?", version).
		Delete(&models.CachedResource{})
	return result.RowsAffected, result.Error
}
