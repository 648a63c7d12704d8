package service

import (
	"context"
	"errors"
	"fmt"
)

// ErrHeightRegressed is returned when a HeightSource reports a height below
// the one already stamped on stored records.
var ErrHeightRegressed = errors.New("block height went backwards")

// HeightSource supplies the current block height. Successive values must
// never decrease.
type HeightSource interface {
	Height(ctx context.Context) (uint64, error)
}

// HeightFunc adapts a plain function to HeightSource.
type HeightFunc func(ctx context.Context) (uint64, error)

// Height implements HeightSource.
func (f HeightFunc) Height(ctx context.Context) (uint64, error) { return f(ctx) }

// nextHeight returns the height for a transition applied after one stamped
// last. It runs inside the write transaction, so last is the committed
// height. Without a source the stored counter advances by one.
func (s *LedgerService) nextHeight(ctx context.Context, last uint64) (uint64, error) {
	if s.heights == nil {
		return last + 1, nil
	}
	h, err := s.heights.Height(ctx)
	if err != nil {
		return 0, fmt.Errorf("read height: %w", err)
	}
	if h < last {
		return 0, fmt.Errorf("%w: got %d after %d", ErrHeightRegressed, h, last)
	}
	return h, nil
}
