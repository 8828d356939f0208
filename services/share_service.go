package services

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"pricelens/models"
)

// ShareService turns a calculation into a URL-embeddable token and back.
// The token is base64url-encoded JSON of the full input/result snapshot, so
// a shared link carries everything needed to reproduce the calculation
// without a server-side lookup. Encode and Decode round-trip exactly.
type ShareService struct {
	cache *CacheService
}

func NewShareService(cache *CacheService) *ShareService {
	return &ShareService{cache: cache}
}

// Encode serializes a payload into a share token.
func (ss *ShareService) Encode(payload models.SharePayload) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode share payload: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// Decode reverses Encode. Decoded payloads are cached so repeatedly opened
// links skip the parse.
func (ss *ShareService) Decode(token string) (*models.SharePayload, error) {
	key := shareCacheKey(token)

	if ss.cache != nil {
		if payload, found := ss.cache.GetSharePayload(key); found {
			return payload, nil
		}
	}

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("invalid share token: %w", err)
	}

	var payload models.SharePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("invalid share payload: %w", err)
	}

	if ss.cache != nil {
		ss.cache.SetSharePayload(key, &payload)
	}

	return &payload, nil
}

func shareCacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "share:" + hex.EncodeToString(sum[:8])
}
