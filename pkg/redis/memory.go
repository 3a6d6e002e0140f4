package redis

import (
	"fmt"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// NewInMemory starts an embedded Redis server and returns a Client connected
// to it. It serves the development API when no Redis endpoint is configured.
// Close stops the embedded server as well.
func NewInMemory() (*Client, error) {
	server, err := miniredis.Run()
	if err != nil {
		return nil, fmt.Errorf("start embedded redis: %w", err)
	}
	raw := redis.NewClient(&redis.Options{Addr: server.Addr()})
	return &Client{store: raw, raw: raw, embedded: server}, nil
}
