package instance

import "github.com/angelmondragon/storefront/pkg/env"

// ID identifies this process in logs. Hosted dynos set DYNO; anything else
// is "local" unless STOREFRONT_INSTANCE_ID says otherwise.
func ID() string {
	return env.Get("STOREFRONT_INSTANCE_ID", env.Get("DYNO", "local"))
}
