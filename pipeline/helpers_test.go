package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/use-agent/sitebrief/llm"
)

type reply struct {
	text      string
	truncated bool
	err       error
}

// scriptedGen answers calls with the queued replies, in order.
type scriptedGen struct {
	mu       sync.Mutex
	replies  []reply
	requests []*llm.Request
}

func script(replies ...reply) *scriptedGen {
	return &scriptedGen{replies: replies}
}

func (g *scriptedGen) Generate(_ context.Context, req *llm.Request) (*llm.Response, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	if len(g.replies) == 0 {
		return nil, errors.New("unexpected generation call")
	}
	r := g.replies[0]
	g.replies = g.replies[1:]
	if r.err != nil {
		return nil, r.err
	}
	return &llm.Response{Text: r.text, Truncated: r.truncated}, nil
}

func (g *scriptedGen) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}

const acmeBrief = "```json\n" + `{
  "business": {"name": "Acme Plumbing", "industry": "plumbing", "location": "Springfield"},
  "tone": "friendly",
  "sections": [{"id": "about", "title": "About", "type": "about", "content": "Family owned since 1998.", "imageIndexes": [0]}],
  "images": [
    {"index": 1, "url": "https://invented.example/x.jpg", "placement": "hero", "priority": 1},
    {"index": 99, "placement": "gallery"}
  ],
  "niche": {"detected": false},
  "brandColors": ["#1a73e8"]
}` + "\n```"

const blockBlueprint = `{
  "layout": [
    {"type": "hero", "id": "hero", "props": {"title": "Acme Plumbing", "imageIndex": 1}},
    {"type": "services", "props": {}},
    {"type": "contact"}
  ],
  "colorScheme": {"primary": "#1a73e8", "secondary": "#ff5722", "background": "#ffffff"},
  "meta": {"title": "Acme Plumbing", "description": "Plumbers in Springfield"}
}`
