package llm

import (
	"context"
	"sync"
)

// MockClient is a scriptable Client for tests. Responses are consumed in
// FIFO order; when the queue is empty the mock returns its default response
// or error.
type MockClient struct {
	DefaultResponse      ClassificationResponse
	DefaultBatchResponse BatchResponse
	Err                  error

	queuedResponses []ClassificationResponse
	queuedBatches   []BatchResponse
	queuedErrs      []error

	ClassifyCalls      []string
	ClassifyBatchCalls []string
	mu                 sync.Mutex
}

// NewMockClient creates a mock with a reasonable default response.
func NewMockClient() *MockClient {
	return &MockClient{
		DefaultResponse: ClassificationResponse{
			Category:   "Shopping",
			Confidence: 0.9,
			Reasoning:  []string{"mock classification"},
		},
	}
}

// QueueResponse appends a scripted single-classification response.
func (m *MockClient) QueueResponse(resp ClassificationResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queuedResponses = append(m.queuedResponses, resp)
}

// QueueBatchResponse appends a scripted batch response.
func (m *MockClient) QueueBatchResponse(resp BatchResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queuedBatches = append(m.queuedBatches, resp)
}

// QueueError appends a scripted error returned by the next call.
func (m *MockClient) QueueError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queuedErrs = append(m.queuedErrs, err)
}

func (m *MockClient) nextError() error {
	if len(m.queuedErrs) > 0 {
		err := m.queuedErrs[0]
		m.queuedErrs = m.queuedErrs[1:]
		return err
	}
	return m.Err
}

// Classify returns the next scripted response.
func (m *MockClient) Classify(ctx context.Context, prompt string) (ClassificationResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ClassifyCalls = append(m.ClassifyCalls, prompt)
	if err := m.nextError(); err != nil {
		return ClassificationResponse{}, err
	}
	if len(m.queuedResponses) > 0 {
		resp := m.queuedResponses[0]
		m.queuedResponses = m.queuedResponses[1:]
		return resp, nil
	}
	return m.DefaultResponse, ctx.Err()
}

// ClassifyBatch returns the next scripted batch response.
func (m *MockClient) ClassifyBatch(ctx context.Context, prompt string) (BatchResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ClassifyBatchCalls = append(m.ClassifyBatchCalls, prompt)
	if err := m.nextError(); err != nil {
		return BatchResponse{}, err
	}
	if len(m.queuedBatches) > 0 {
		resp := m.queuedBatches[0]
		m.queuedBatches = m.queuedBatches[1:]
		return resp, nil
	}
	return m.DefaultBatchResponse, ctx.Err()
}
