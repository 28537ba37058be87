package datasource

import "fmt"

// ConfigError reports malformed or incomplete source configuration. It is
// fatal at construction time and never downgraded.
type ConfigError struct {
	Source string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	msg := e.Reason
	if e.Source != "" {
		msg = fmt.Sprintf("datasource %s: %s", e.Source, e.Reason)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

// NotFoundError reports a source name absent from configuration.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("datasource %q is not configured", e.Name)
}

// InvalidArgumentError reports a missing required call parameter. No network
// call is attempted and no fallback applies.
type InvalidArgumentError struct {
	Param string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("required parameter %q is missing", e.Param)
}

// StatusError carries a non-2xx upstream response. The status code decides
// fallback eligibility; the body is kept for the terminal error message.
type StatusError struct {
	Source     string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Source, e.StatusCode, e.Body)
}
