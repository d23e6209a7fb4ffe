package platform

import "time"

// AppName is reported to the host notification service.
const AppName = "Retouch"

const defaultTimeout = 4 * time.Second

// Options configures how a notification is displayed on the host platform.
type Options struct {
	// IconPath, when non-empty, points to an image file shown alongside the
	// message where the platform supports it.
	IconPath string
	// Critical asks the platform to treat the notification as urgent.
	Critical bool
	// Timeout is how long the notification should stay up. Zero uses 4s.
	Timeout time.Duration
}

func (o Options) timeoutMillis() int32 {
	if o.Timeout <= 0 {
		return int32(defaultTimeout / time.Millisecond)
	}
	return int32(o.Timeout / time.Millisecond)
}
