package cache

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
)

// PushReport prepends a JSON-encoded run report to the list at key and trims
// the list to the keep most recent entries.
func PushReport(ctx context.Context, r *Redis, key string, report any, keep int64) error {
	data, err := json.Marshal(report)
	if err != nil {
		return errors.Wrap(err, "report marshal")
	}
	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, key, data)
	if keep > 0 {
		pipe.LTrim(ctx, key, 0, keep-1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrapf(err, "report push %s", key)
	}
	return nil
}

// RecentReports returns up to n reports from key, newest first.
func RecentReports[T any](ctx context.Context, r *Redis, key string, n int64) ([]T, error) {
	raw, err := r.client.LRange(ctx, key, 0, n-1).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "report range %s", key)
	}
	out := make([]T, 0, len(raw))
	for _, s := range raw {
		var v T
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			return nil, errors.Wrap(err, "report unmarshal")
		}
		out = append(out, v)
	}
	return out, nil
}
