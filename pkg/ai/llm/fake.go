package llm

import (
	"context"
	"sync"
)

// Fake is a scripted Client for tests and local development
type Fake struct {
	GenerateFunc func(req Request) (string, error)
	ImageFunc    func(prompt string) (*Image, error)

	mu       sync.Mutex
	requests []Request
}

// Generate records req and answers with GenerateFunc
func (f *Fake) Generate(ctx context.Context, req Request) (*Response, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.GenerateFunc == nil {
		return nil, ErrEmptyResponse
	}
	text, err := f.GenerateFunc(req)
	if err != nil {
		return nil, err
	}
	return &Response{Text: text}, nil
}

// GenerateImage answers with ImageFunc
func (f *Fake) GenerateImage(ctx context.Context, prompt string) (*Image, error) {
	if f.ImageFunc == nil {
		return nil, ErrEmptyResponse
	}
	return f.ImageFunc(prompt)
}

// Requests returns every Generate call seen so far
func (f *Fake) Requests() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Request(nil), f.requests...)
}
