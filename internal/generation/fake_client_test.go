package generation

import (
	"context"
	"sync"

	"github.com/jonathan/resume-versions/internal/llm"
)

// scriptedClient is an llm.Client that replays canned responses in order
type scriptedClient struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	calls     []llm.Request
	// waitForDeadline makes every call block until its context ends
	waitForDeadline bool
	// onCall runs after the context check, just before the response is returned
	onCall func()
}

func (c *scriptedClient) GenerateJSON(ctx context.Context, req llm.Request) (string, error) {
	c.mu.Lock()
	n := len(c.calls)
	c.calls = append(c.calls, req)
	c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if c.onCall != nil {
		c.onCall()
	}
	if c.waitForDeadline {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if n < len(c.errs) && c.errs[n] != nil {
		return "", c.errs[n]
	}
	if n < len(c.responses) {
		return c.responses[n], nil
	}
	return "", llm.ErrNoContent
}

func (c *scriptedClient) GetModel(llm.ModelTier) string {
	return "scripted-model"
}

func (c *scriptedClient) Close() error {
	return nil
}

func (c *scriptedClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func (c *scriptedClient) lastCall() llm.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[len(c.calls)-1]
}

type stubFetcher struct {
	text string
	err  error
	urls []string
}

func (f *stubFetcher) FetchJobDescription(_ context.Context, url string) (string, error) {
	f.urls = append(f.urls, url)
	return f.text, f.err
}
