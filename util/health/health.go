// Package health aggregates the health checks of a service's dependencies.
package health

import (
	"context"
	"net/http"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Check struct {
	Name  string
	Check func(context.Context, bool) (int, string, error)
}

type result struct {
	Resource     string              `json:"resource"`
	Status       int                 `json:"status"`
	Error        string              `json:"error,omitempty"`
	Message      string              `json:"message,omitempty"`
	Dependencies jsoniter.RawMessage `json:"dependencies,omitempty"`
}

type report struct {
	Status       int      `json:"status"`
	Dependencies []result `json:"dependencies"`
}

// CheckAll runs every check. The overall status is 503 as soon as one check
// fails. A check message that is itself a JSON document is nested as is.
func CheckAll(ctx context.Context, checkLiveness bool, checks []Check) (int, string, error) {
	r := report{
		Status:       http.StatusOK,
		Dependencies: make([]result, 0, len(checks)),
	}

	for _, check := range checks {
		status, message, err := check.Check(ctx, checkLiveness)
		if err != nil || status != http.StatusOK {
			r.Status = http.StatusServiceUnavailable
		}

		res := result{Resource: check.Name, Status: status}

		if err != nil {
			res.Error = err.Error()
		}

		if json.Valid([]byte(message)) && len(message) > 0 && message[0] == '{' {
			res.Dependencies = jsoniter.RawMessage(message)
		} else {
			res.Message = message
		}

		r.Dependencies = append(r.Dependencies, res)
	}

	b, err := json.Marshal(r)
	if err != nil {
		return http.StatusInternalServerError, "", err
	}

	return r.Status, string(b), nil
}
