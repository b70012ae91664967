package checkin

import "fmt"

// Upstream names the external system a failed call went to. The webhook
// controller maps every failure to the same HTTP status, so the kind is
// what keeps messaging and spreadsheet failures distinguishable in logs.
type Upstream string

const (
	UpstreamMessaging Upstream = "upstream_messaging"
	UpstreamStore     Upstream = "upstream_store"
)

type UpstreamError struct {
	Upstream Upstream
	Op       string
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Upstream, e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func messagingErr(op string, err error) error {
	return &UpstreamError{Upstream: UpstreamMessaging, Op: op, Err: err}
}

func storeErr(op string, err error) error {
	return &UpstreamError{Upstream: UpstreamStore, Op: op, Err: err}
}
