package anthropic

import (
	"context"

	"github.com/rotisserie/eris"
)

// ErrDisabled is returned by the disabled client. Callers treat it the same
// as a declined answer.
var ErrDisabled = eris.New("anthropic: client disabled")

type disabledClient struct{}

// NewDisabled returns a client that refuses every call. Used when the LLM
// feature flag is off; the rule-based pipeline stays fully functional.
func NewDisabled() Client {
	return disabledClient{}
}

func (disabledClient) Enabled() bool { return false }

func (disabledClient) CreateMessage(context.Context, MessageRequest) (*MessageResponse, error) {
	return nil, ErrDisabled
}
