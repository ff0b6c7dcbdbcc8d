package anthropic

import (
	"context"
	"sync"
)

// FakeClient replays scripted responses for tests. Safe for concurrent use.
type FakeClient struct {
	mu        sync.Mutex
	responses []*MessageResponse
	errs      []error
	requests  []MessageRequest
}

// NewFake returns an empty fake client; queue responses with Enqueue.
func NewFake() *FakeClient {
	return &FakeClient{}
}

// Enqueue adds one scripted outcome. Exactly one of resp or err should be
// set per call.
func (f *FakeClient) Enqueue(resp *MessageResponse, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, resp)
	f.errs = append(f.errs, err)
}

// EnqueueText queues a plain text response.
func (f *FakeClient) EnqueueText(text string) {
	f.Enqueue(&MessageResponse{
		Model:   "fake",
		Content: []ContentBlock{{Type: "text", Text: text}},
	}, nil)
}

// Requests returns every request seen so far.
func (f *FakeClient) Requests() []MessageRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]MessageRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

// CallCount returns how many calls were made.
func (f *FakeClient) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *FakeClient) Enabled() bool { return true }

func (f *FakeClient) CreateMessage(_ context.Context, req MessageRequest) (*MessageResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, req)
	if len(f.responses) == 0 {
		return nil, ErrDisabled
	}

	resp, err := f.responses[0], f.errs[0]
	f.responses = f.responses[1:]
	f.errs = f.errs[1:]
	return resp, err
}
