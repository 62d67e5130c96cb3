package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/CrestNiraj12/mumlife/domain"
)

// FriendButton is an add-to-friends / confirm / block control.
// After one successful press it becomes inert.
type FriendButton struct {
	From   int
	To     int
	Action domain.FriendAction

	svc FriendshipService
	log *zap.Logger

	mu    sync.Mutex
	state domain.FriendState
	inert bool
	busy  bool
}

// NewFriendButton creates a button for the from→to relation.
func NewFriendButton(svc FriendshipService, from, to int, action domain.FriendAction, opts ...Option) *FriendButton {
	o := buildOptions(opts)
	return &FriendButton{
		From:   from,
		To:     to,
		Action: action,
		svc:    svc,
		log:    o.log,
	}
}

// Press sends the friendship action. A duplicate relation reported as
// "Already Exists" is ignored and leaves the button unchanged.
func (b *FriendButton) Press(ctx context.Context) error {
	if b.From == b.To {
		return domain.ErrSameMember
	}
	b.mu.Lock()
	if b.inert || b.busy {
		b.mu.Unlock()
		return nil
	}
	b.busy = true
	b.mu.Unlock()

	err := b.svc.SetFriendship(ctx, b.From, b.To, b.Action.Status())

	b.mu.Lock()
	defer b.mu.Unlock()
	b.busy = false
	if err != nil {
		if domain.ErrorDetail(err) == domain.DetailAlreadyExists {
			b.log.Debug("friendship already exists", zap.Int("from", b.From), zap.Int("to", b.To))
			return nil
		}
		var apiErr *domain.APIError
		if !errors.As(err, &apiErr) {
			b.log.Warn("friendship request failed", zap.Int("to", b.To), zap.Error(err))
		}
		return fmt.Errorf("friendship %d→%d: %w", b.From, b.To, err)
	}

	switch b.Action {
	case domain.FriendConfirm:
		b.state = domain.FriendStateFriend
	case domain.FriendBlock:
		b.state = domain.FriendStateBlocked
	default:
		b.state = domain.FriendStateRequested
	}
	b.inert = true
	return nil
}

// State returns the visible state of the button.
func (b *FriendButton) State() domain.FriendState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Inert reports whether further presses are ignored.
func (b *FriendButton) Inert() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.inert
}
