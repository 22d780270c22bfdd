// Package profiles resolves seller profiles and entitlement before the
// pipeline runs.
package profiles

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"replydesk/internal/common/logger"
	"replydesk/internal/models"
)

var ErrProfileLookupFailed = errors.New("PROFILE_LOOKUP_FAILED")

const cacheTTL = 5 * time.Minute

// Resolver looks up the seller profile and subscription state in
// Postgres, with a short Redis cache in front. Profiles change rarely
// and are read on every request.
type Resolver struct {
	db     *sql.DB
	cache  *redis.Client
	logger logger.Logger
}

func NewResolver(db *sql.DB, cache *redis.Client, log logger.Logger) *Resolver {
	return &Resolver{
		db:     db,
		cache:  cache,
		logger: log.With(map[string]interface{}{"component": "profiles"}),
	}
}

type cachedProfile struct {
	Profile  models.SellerProfile `json:"profile"`
	Entitled bool                 `json:"entitled"`
}

func (r *Resolver) Resolve(ctx context.Context, accountID string) (models.SellerProfile, bool, error) {
	cacheKey := "profile:" + accountID
	if r.cache != nil {
		if val, err := r.cache.Get(ctx, cacheKey).Result(); err == nil {
			var cached cachedProfile
			if err := json.Unmarshal([]byte(val), &cached); err == nil {
				return cached.Profile, cached.Entitled, nil
			}
		}
	}

	const query = `
		SELECT p.display_name, p.business_name, p.tone, p.tone_samples,
		       s.is_active, s.expires_at
		FROM seller_profiles p
		LEFT JOIN subscriptions s ON s.account_id = p.account_id
		WHERE p.account_id = $1`

	var (
		profile   models.SellerProfile
		samples   pq.StringArray
		isActive  sql.NullBool
		expiresAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, accountID).Scan(
		&profile.DisplayName, &profile.BusinessName, &profile.Tone, &samples,
		&isActive, &expiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.SellerProfile{}, false, nil
		}
		return models.SellerProfile{}, false, errors.Join(ErrProfileLookupFailed, err)
	}

	profile.AccountID = accountID
	profile.ToneSamples = samples

	entitled := isActive.Valid && isActive.Bool
	if entitled && expiresAt.Valid && time.Now().After(expiresAt.Time) {
		entitled = false
	}

	if r.cache != nil {
		if data, err := json.Marshal(cachedProfile{Profile: profile, Entitled: entitled}); err == nil {
			if err := r.cache.Set(ctx, cacheKey, data, cacheTTL).Err(); err != nil {
				r.logger.Debug("profile cache write failed", map[string]interface{}{
					"accountId": accountID,
					"error":     err.Error(),
				})
			}
		}
	}

	return profile, entitled, nil
}
