package calls

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repository for tests.
type MemoryRepo struct {
	mu   sync.Mutex
	logs map[string]CallLog
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{logs: map[string]CallLog{}} }

func (r *MemoryRepo) Insert(ctx context.Context, l CallLog) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.logs[l.ID]; ok {
		return false, nil
	}
	l.Links = append([]Link(nil), l.Links...)
	r.logs[l.ID] = l
	return true, nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (CallLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.logs[id]
	if !ok {
		return CallLog{}, ErrNotFound
	}
	l.Links = append([]Link(nil), l.Links...)
	return l, nil
}

func (r *MemoryRepo) Update(ctx context.Context, l CallLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.logs[l.ID]
	if !ok {
		return ErrNotFound
	}
	// Identity columns and links are immutable after insert.
	l.Type, l.From, l.To, l.Medium, l.CreatedAt = cur.Type, cur.From, cur.To, cur.Medium, cur.CreatedAt
	l.Links = cur.Links
	r.logs[l.ID] = l
	return nil
}

func (r *MemoryRepo) CountActiveForUser(ctx context.Context, user string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, l := range r.logs {
		if l.VoIPUser == user && l.Status.IsActive() {
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepo) List(ctx context.Context, from, to time.Time) ([]CallLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]CallLog, 0)
	for _, l := range r.logs {
		if l.CreatedAt.Before(from) || !l.CreatedAt.Before(to) {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Len returns the number of stored call logs.
func (r *MemoryRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.logs)
}
