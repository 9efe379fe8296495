package documents

import (
	"context"
	"sort"
	"sync"
)

// Release frees locks taken by Locker.Acquire. Calling it more than once is safe.
type Release func(ctx context.Context) error

// Locker serializes saves that touch the same keys across service instances.
type Locker interface {
	Acquire(ctx context.Context, keys []string) (Release, error)
}

// NopLocker grants every lock immediately.
type NopLocker struct{}

func (NopLocker) Acquire(context.Context, []string) (Release, error) {
	return func(context.Context) error { return nil }, nil
}

// Once wraps r so only the first call has an effect.
func Once(r Release) Release {
	var once sync.Once
	var err error
	return func(ctx context.Context) error {
		once.Do(func() { err = r(ctx) })
		return err
	}
}

// ItemLockKeys returns one sorted lock key per item. Valuation serializes on
// items, and sorted keys keep concurrent saves from deadlocking.
func ItemLockKeys[L any](lines []L, line func(*L) *Line) []string {
	seen := make(map[string]bool, len(lines))
	keys := make([]string, 0, len(lines))
	for i := range lines {
		k := "item:" + line(&lines[i]).ItemID.String()
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
