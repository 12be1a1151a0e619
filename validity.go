package funcache

import "time"

// Convenience durations for validity windows, mirroring the usual ladder
// callers reach for when memoizing slow work.
const (
	Day   = 24 * time.Hour
	Week  = 7 * Day
	Month = 30 * Day
	Year  = 365 * Day
)

// Validity bounds how long a stored entry stays usable. The zero value is
// invalid; construct with For or use Forever.
type Validity struct {
	window  time.Duration
	forever bool
}

// Forever disables expiry entirely.
var Forever = Validity{forever: true}

// For returns a finite validity window. d must be positive; Validate rejects
// zero and negative windows rather than treating them as always-expired.
func For(d time.Duration) Validity {
	return Validity{window: d}
}

// IsForever reports whether the window disables expiry.
func (v Validity) IsForever() bool { return v.forever }

// Window returns the finite duration, or zero for Forever.
func (v Validity) Window() time.Duration {
	if v.forever {
		return 0
	}
	return v.window
}

// Validate rejects non-positive finite windows with a ConfigError.
func (v Validity) Validate() error {
	if v.forever {
		return nil
	}
	if v.window <= 0 {
		return configErr("validity window must be positive, got %s", v.window)
	}
	return nil
}
