// Package embedding defines the embedding provider boundary and its errors.
package embedding

import "errors"

// ErrThrottled marks a rate-limited embedding call. Callers decide whether
// and how to retry; the client itself never loops.
var ErrThrottled = errors.New("embedding provider throttled")
