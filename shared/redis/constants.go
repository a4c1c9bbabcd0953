// shared/redis/constants.go
package redis

const (
	// RateLimitKeyPrefix holds one sorted set of request timestamps per caller: ratelimit:{scope}:{caller}
	RateLimitKeyPrefix = "ratelimit:{%s}:%s"
)
