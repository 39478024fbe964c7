package telegram

import (
	"context"
	"sync"

	"github.com/gotd/td/tg"

	"github.com/omniores3/pythonGroupTools/internal/domain"
)

// listenerHandle identifies one installed live listener on a client
type listenerHandle struct {
	client  *MTProtoClient
	groupID int64
	id      uint64
	once    sync.Once
}

// Close removes the listener; safe to call more than once
func (h *listenerHandle) Close() {
	h.once.Do(func() {
		h.client.listenerMu.Lock()
		defer h.client.listenerMu.Unlock()
		if fns, ok := h.client.listeners[h.groupID]; ok {
			delete(fns, h.id)
			if len(fns) == 0 {
				delete(h.client.listeners, h.groupID)
			}
		}
	})
}

// RegisterMessageHandler installs a live callback for new messages in
// the given group. Incoming updates for other groups are ignored. The
// callback runs on the update dispatch goroutine, so it must not block.
func (c *MTProtoClient) RegisterMessageHandler(groupID int64, fn func(domain.CollectedMessage)) (domain.ListenerHandle, error) {
	if _, err := c.checkReady(); err != nil {
		return nil, err
	}

	c.listenerMu.Lock()
	defer c.listenerMu.Unlock()

	c.nextHandle++
	id := c.nextHandle
	if c.listeners[groupID] == nil {
		c.listeners[groupID] = make(map[uint64]func(domain.CollectedMessage))
	}
	c.listeners[groupID][id] = fn

	c.logger.Debug().Int64("group_id", groupID).Msg("listener registered")
	return &listenerHandle{client: c, groupID: groupID, id: id}, nil
}

// onNewChannelMessage is the tg.UpdateDispatcher callback for
// channel and supergroup messages
func (c *MTProtoClient) onNewChannelMessage(ctx context.Context, e tg.Entities, u *tg.UpdateNewChannelMessage) error {
	msg, ok := u.Message.(*tg.Message)
	if !ok || msg.Out {
		return nil
	}

	peer, ok := msg.PeerID.(*tg.PeerChannel)
	if !ok {
		return nil
	}

	c.dispatchMessage(peer.ChannelID, msg, e.Users)
	return nil
}

// onNewMessage is the tg.UpdateDispatcher callback for legacy group
// messages
func (c *MTProtoClient) onNewMessage(ctx context.Context, e tg.Entities, u *tg.UpdateNewMessage) error {
	msg, ok := u.Message.(*tg.Message)
	if !ok || msg.Out {
		return nil
	}

	peer, ok := msg.PeerID.(*tg.PeerChat)
	if !ok {
		return nil
	}

	c.dispatchMessage(peer.ChatID, msg, e.Users)
	return nil
}

// dispatchMessage fans one incoming message out to the listeners
// registered for its group
func (c *MTProtoClient) dispatchMessage(groupID int64, msg *tg.Message, users map[int64]*tg.User) {
	c.listenerMu.RLock()
	fns := make([]func(domain.CollectedMessage), 0, len(c.listeners[groupID]))
	for _, fn := range c.listeners[groupID] {
		fns = append(fns, fn)
	}
	c.listenerMu.RUnlock()

	if len(fns) == 0 {
		return
	}

	collected := convertMessage(msg, users)
	for _, fn := range fns {
		fn(collected)
	}
}
