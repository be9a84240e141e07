package products

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const viewsKey = "product:views"

// Activity records product page views in redis and ranks products by view
// count for the trending endpoint. A nil client disables tracking; Trending
// then returns no ids and callers fall back to the latest products.
type Activity struct {
	rdb *redis.Client
}

func NewActivity(rdb *redis.Client) *Activity {
	return &Activity{rdb: rdb}
}

func (a *Activity) RecordView(ctx context.Context, productID int64) error {
	if a.rdb == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return a.rdb.ZIncrBy(ctx, viewsKey, 1, strconv.FormatInt(productID, 10)).Err()
}

// TopViewed returns product ids ordered by view count, most viewed first.
func (a *Activity) TopViewed(ctx context.Context, limit int) ([]int64, error) {
	if a.rdb == nil {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	members, err := a.rdb.ZRevRange(ctx, viewsKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
