package web

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/unitrack/internal/core"
)

var errImportNotFound = errors.New("import not found or expired")

// pendingImport is a parsed roster waiting for the lecturer to confirm it.
type pendingImport struct {
	ID        string              `json:"import_id"`
	CourseID  string              `json:"course_id"`
	Filename  string              `json:"filename"`
	Outcome   *core.ImportOutcome `json:"outcome"`
	CreatedAt time.Time           `json:"created_at"`
	ExpiresAt time.Time           `json:"expires_at"`
}

// pendingImports holds previews between upload and confirm. Entries expire
// after ttl.
type pendingImports struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items map[string]*pendingImport
}

func newPendingImports(ttl time.Duration) *pendingImports {
	return &pendingImports{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]*pendingImport),
	}
}

func (p *pendingImports) add(courseID, filename string, outcome *core.ImportOutcome) *pendingImport {
	now := p.now()
	pi := &pendingImport{
		ID:        uuid.NewString(),
		CourseID:  courseID,
		Filename:  filename,
		Outcome:   outcome,
		CreatedAt: now,
		ExpiresAt: now.Add(p.ttl),
	}

	p.mu.Lock()
	p.items[pi.ID] = pi
	p.mu.Unlock()
	return pi
}

func (p *pendingImports) get(id string) (*pendingImport, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pi, ok := p.items[id]
	if !ok {
		return nil, errImportNotFound
	}
	if !p.now().Before(pi.ExpiresAt) {
		delete(p.items, id)
		return nil, errImportNotFound
	}
	return pi, nil
}

// take removes and returns an unexpired entry, so only one confirm can
// submit it.
func (p *pendingImports) take(id string) (*pendingImport, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pi, ok := p.items[id]
	if !ok {
		return nil, errImportNotFound
	}
	delete(p.items, id)
	if !p.now().Before(pi.ExpiresAt) {
		return nil, errImportNotFound
	}
	return pi, nil
}

// restore puts back an entry taken for a confirm that can be retried. It
// keeps the original expiry.
func (p *pendingImports) restore(pi *pendingImport) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.now().Before(pi.ExpiresAt) {
		p.items[pi.ID] = pi
	}
}

// clear drops every entry.
func (p *pendingImports) clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = make(map[string]*pendingImport)
}

func (p *pendingImports) remove(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.items[id]
	delete(p.items, id)
	return ok
}

// sweep drops expired entries and returns how many it dropped.
func (p *pendingImports) sweep() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	n := 0
	for id, pi := range p.items {
		if !now.Before(pi.ExpiresAt) {
			delete(p.items, id)
			n++
		}
	}
	return n
}

func (p *pendingImports) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}
