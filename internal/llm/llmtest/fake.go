// Package llmtest provides a scripted Completer for tests.
package llmtest

import (
	"context"
	"sync"

	"github.com/HendryAvila/analyser/internal/llm"
)

// Fake returns canned replies and records every request it receives.
type Fake struct {
	mu       sync.Mutex
	Reply    string
	Err      error
	Usage    llm.Usage
	Requests []llm.Request
}

// Complete records req and returns the scripted reply or error.
func (f *Fake) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Requests = append(f.Requests, req)
	if f.Err != nil {
		return nil, f.Err
	}
	return &llm.Response{Content: f.Reply, Usage: f.Usage}, nil
}

// Last returns the most recent request, or the zero value if none.
func (f *Fake) Last() llm.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Requests) == 0 {
		return llm.Request{}
	}
	return f.Requests[len(f.Requests)-1]
}

// Calls returns how many requests were made.
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Requests)
}

var _ llm.Completer = (*Fake)(nil)
