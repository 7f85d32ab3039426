// Package paging reshapes the backend's assorted list responses into
// models.Page values.
//
// The backend answers list endpoints in three shapes: a Spring page
// ({content, totalElements, number, size, totalPages}), a bare array, or a
// {data, total, page, limit, totalPages} object. Callers always get a Page.
package paging

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/kassolend/console/internal/models"
)

type springPage[T any] struct {
	Content       []T  `json:"content"`
	TotalElements *int `json:"totalElements"`
	Number        *int `json:"number"`
	Size          *int `json:"size"`
	TotalPages    *int `json:"totalPages"`
}

type dataPage[T any] struct {
	Data       []T  `json:"data"`
	Total      *int `json:"total"`
	Page       *int `json:"page"`
	Limit      *int `json:"limit"`
	Size       *int `json:"size"`
	TotalPages *int `json:"totalPages"`
}

// Normalize converts an unwrapped list payload into a Page. requestedPage is
// the page the caller asked for (nil if none) and pageSize the size it asked
// for, used wherever the payload does not say.
func Normalize[T any](raw json.RawMessage, requestedPage *int, pageSize int, logger zerolog.Logger) (models.Page[T], error) {
	if pageSize <= 0 {
		pageSize = models.DefaultPageSize
	}
	raw = bytes.TrimSpace(raw)

	switch {
	case gjson.GetBytes(raw, "content").IsArray():
		var p springPage[T]
		if err := json.Unmarshal(raw, &p); err != nil {
			return models.Page[T]{}, fmt.Errorf("failed to decode page: %w", err)
		}
		total := orDefault(p.TotalElements, len(p.Content))
		limit := orDefault(p.Size, pageSize)
		return models.Page[T]{
			Data:       p.Content,
			Total:      total,
			Page:       orDefault(p.Number, 0),
			Limit:      limit,
			TotalPages: orDefault(p.TotalPages, pageCount(total, limit)),
		}, nil

	case len(raw) > 0 && raw[0] == '[':
		var items []T
		if err := json.Unmarshal(raw, &items); err != nil {
			return models.Page[T]{}, fmt.Errorf("failed to decode list: %w", err)
		}
		return models.Page[T]{
			Data:       items,
			Total:      len(items),
			Page:       orDefault(requestedPage, 0),
			Limit:      pageSize,
			TotalPages: pageCount(len(items), pageSize),
		}, nil

	case gjson.GetBytes(raw, "data").IsArray():
		var p dataPage[T]
		if err := json.Unmarshal(raw, &p); err != nil {
			return models.Page[T]{}, fmt.Errorf("failed to decode page: %w", err)
		}
		total := orDefault(p.Total, len(p.Data))
		limit := orDefault(p.Limit, orDefault(p.Size, pageSize))
		page := orDefault(requestedPage, 0)
		if p.Page != nil {
			page = *p.Page
		}
		return models.Page[T]{
			Data:       p.Data,
			Total:      total,
			Page:       page,
			Limit:      limit,
			TotalPages: orDefault(p.TotalPages, pageCount(total, limit)),
		}, nil
	}

	logger.Warn().RawJSON("response", safeJSON(raw)).Msg("Unexpected list response format")
	return models.Page[T]{Data: []T{}, Limit: pageSize}, nil
}

// ExtractList reads a list payload that is either a bare array or an object
// holding the array under the first of keys that is present
func ExtractList[T any](raw json.RawMessage, keys ...string) ([]T, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var items []T
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("failed to decode list: %w", err)
		}
		return items, nil
	}

	for _, key := range keys {
		field := gjson.GetBytes(raw, key)
		if !field.IsArray() {
			continue
		}
		var items []T
		if err := json.Unmarshal([]byte(field.Raw), &items); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", key, err)
		}
		return items, nil
	}
	return []T{}, nil
}

func orDefault(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func pageCount(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

func safeJSON(raw []byte) []byte {
	if !json.Valid(raw) {
		return []byte("null")
	}
	return raw
}
