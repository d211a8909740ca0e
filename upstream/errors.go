package upstream

import (
	"fmt"
	"strings"

	"github.com/vektah/gqlparser/v2/gqlerror"
)

// HTTPError is a non-2xx response without a GraphQL error envelope.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream returned HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream returned HTTP %d: %s", e.StatusCode, e.Body)
}

// GraphQLError carries the errors list of a GraphQL response. Data holds
// any partial data returned alongside the errors.
type GraphQLError struct {
	Errors gqlerror.List
	Data   []byte
}

func (e *GraphQLError) Error() string {
	msgs := e.Messages()
	if len(msgs) == 0 {
		return "upstream returned an empty error list"
	}
	return strings.Join(msgs, "; ")
}

// Messages returns the message of each upstream error, in order.
func (e *GraphQLError) Messages() []string {
	out := make([]string, 0, len(e.Errors))
	for _, ge := range e.Errors {
		if ge != nil {
			out = append(out, ge.Message)
		}
	}
	return out
}
