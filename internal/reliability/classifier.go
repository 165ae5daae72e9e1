package reliability

import "time"

// RetryableHTTPStatus classifies provider REST responses worth retrying.
func RetryableHTTPStatus(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// TransientModelCode classifies realtime model error codes that do not
// invalidate the session. Anything else is treated as a session-level fault.
func TransientModelCode(code string) bool {
	switch code {
	case "rate_limit_exceeded", "server_error", "response_cancel_not_active":
		return true
	default:
		return false
	}
}

// Backoff computes a deterministic capped exponential backoff duration.
func Backoff(attempt int, base, cap time.Duration) time.Duration {
	if attempt <= 0 {
		return base
	}
	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= cap {
			return cap
		}
	}
	return d
}
