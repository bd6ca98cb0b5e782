package llm

import (
	"context"
	"sync"
)

// MockCall records one Chat invocation against a MockChatProvider.
type MockCall struct {
	System string
	User   string
	Opts   ChatOptions
}

// MockChatProvider is a ChatProvider for tests. When Fn is set it decides
// the reply, otherwise Response and Err are returned as-is. Calls are
// recorded.
type MockChatProvider struct {
	NameValue string
	Response  string
	Err       error
	Fn        func(system, user string, opts ChatOptions) (string, error)

	mu    sync.Mutex
	Calls []MockCall
}

// Name implements ChatProvider.
func (m *MockChatProvider) Name() string {
	if m.NameValue == "" {
		return "mock"
	}
	return m.NameValue
}

// Chat implements ChatProvider.
func (m *MockChatProvider) Chat(_ context.Context, system, user string, opts ChatOptions) (string, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, MockCall{System: system, User: user, Opts: opts})
	m.mu.Unlock()

	if m.Fn != nil {
		return m.Fn(system, user, opts)
	}
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

// CallCount returns the number of recorded calls.
func (m *MockChatProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

var _ ChatProvider = (*MockChatProvider)(nil)
