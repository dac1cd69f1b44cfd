package feed

import (
	"context"
)

// WaitForAppend blocks until a block is appended through this store or ctx
// is done. It returns ctx.Err() in the latter case.
func (f *Feed) WaitForAppend(ctx context.Context) error {
	f.mu.Lock()
	ch := f.notifyCh
	f.mu.Unlock()
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Update reloads length and byte length from the database, picking up
// appends made through another store over the same database.
func (f *Feed) Update(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ready = false
	return f.readyLocked(ctx)
}
