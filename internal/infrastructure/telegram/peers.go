package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"

	"github.com/omniores3/pythonGroupTools/internal/domain"
)

// identifierKind discriminates the supported group identifier forms
type identifierKind int

const (
	identifierUsername identifierKind = iota
	identifierInvite
)

// parseIdentifier normalizes a group identifier: full t.me URLs,
// @-handles and bare usernames map to a username; joinchat and +
// links map to an invite hash.
func parseIdentifier(identifier string) (identifierKind, string) {
	s := strings.TrimSpace(identifier)
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimPrefix(s, "t.me/")

	switch {
	case strings.HasPrefix(s, "joinchat/"):
		return identifierInvite, strings.TrimPrefix(s, "joinchat/")
	case strings.HasPrefix(s, "+"):
		return identifierInvite, strings.TrimPrefix(s, "+")
	default:
		return identifierUsername, strings.TrimPrefix(s, "@")
	}
}

// cachePeer remembers a resolved peer under its numeric ID and username
func (c *MTProtoClient) cachePeer(id int64, username string, peer tg.InputPeerClass) {
	c.peerMu.Lock()
	defer c.peerMu.Unlock()
	c.peersByID[id] = peer
	if username != "" {
		c.peersByName[strings.ToLower(username)] = peer
	}
}

// peerByID returns a previously resolved peer by its Telegram numeric ID
func (c *MTProtoClient) peerByID(id int64) (tg.InputPeerClass, error) {
	c.peerMu.RLock()
	defer c.peerMu.RUnlock()
	peer, ok := c.peersByID[id]
	if !ok {
		return nil, fmt.Errorf("%w: peer %d not resolved yet", domain.ErrResolveFailed, id)
	}
	return peer, nil
}

// resolvePeer resolves a username (or @handle / t.me URL) to an input
// peer, consulting the cache first
func (c *MTProtoClient) resolvePeer(ctx context.Context, identifier string) (tg.InputPeerClass, error) {
	kind, value := parseIdentifier(identifier)
	if kind == identifierInvite {
		return nil, fmt.Errorf("%w: invite links must be joined before use", domain.ErrResolveFailed)
	}

	c.peerMu.RLock()
	if peer, ok := c.peersByName[strings.ToLower(value)]; ok {
		c.peerMu.RUnlock()
		return peer, nil
	}
	c.peerMu.RUnlock()

	api, err := c.checkReady()
	if err != nil {
		return nil, err
	}

	resolved, err := api.ContactsResolveUsername(ctx, value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrResolveFailed, identifier, err)
	}

	for _, chat := range resolved.Chats {
		switch peer := chat.(type) {
		case *tg.Channel:
			input := &tg.InputPeerChannel{ChannelID: peer.ID, AccessHash: peer.AccessHash}
			c.cachePeer(peer.ID, value, input)
			return input, nil
		case *tg.Chat:
			input := &tg.InputPeerChat{ChatID: peer.ID}
			c.cachePeer(peer.ID, value, input)
			return input, nil
		}
	}
	for _, u := range resolved.Users {
		if user, ok := u.(*tg.User); ok {
			input := &tg.InputPeerUser{UserID: user.ID, AccessHash: user.AccessHash}
			c.cachePeer(user.ID, value, input)
			return input, nil
		}
	}

	return nil, fmt.Errorf("%w: %s resolved to nothing usable", domain.ErrResolveFailed, identifier)
}

// Resolve resolves a group identifier without joining it
func (c *MTProtoClient) Resolve(ctx context.Context, identifier string) (*domain.GroupInfo, error) {
	api, err := c.checkReady()
	if err != nil {
		return nil, err
	}
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	kind, value := parseIdentifier(identifier)

	if kind == identifierInvite {
		invite, err := api.MessagesCheckChatInvite(ctx, value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrResolveFailed, identifier, err)
		}
		switch v := invite.(type) {
		case *tg.ChatInviteAlready:
			return c.groupInfoFromChat(ctx, v.Chat)
		case *tg.ChatInvitePeek:
			return c.groupInfoFromChat(ctx, v.Chat)
		case *tg.ChatInvite:
			// Not a member yet: Telegram exposes only the preview
			return &domain.GroupInfo{
				Title:       v.Title,
				Description: v.About,
				MemberCount: v.ParticipantsCount,
			}, nil
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrResolveFailed, identifier)
	}

	resolved, err := api.ContactsResolveUsername(ctx, value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrResolveFailed, identifier, err)
	}

	for _, chat := range resolved.Chats {
		info, err := c.groupInfoFromChat(ctx, chat)
		if err == nil {
			return info, nil
		}
	}

	return nil, fmt.Errorf("%w: %s is not a group or channel", domain.ErrResolveFailed, identifier)
}

// Join resolves a group identifier and joins it when not already a
// member; invite-hash identifiers are imported
func (c *MTProtoClient) Join(ctx context.Context, identifier string) (*domain.GroupInfo, error) {
	api, err := c.checkReady()
	if err != nil {
		return nil, err
	}
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	kind, value := parseIdentifier(identifier)

	if kind == identifierInvite {
		updates, err := api.MessagesImportChatInvite(ctx, value)
		if err != nil {
			if tgerr.Is(err, "USER_ALREADY_PARTICIPANT") {
				invite, checkErr := api.MessagesCheckChatInvite(ctx, value)
				if checkErr != nil {
					return nil, fmt.Errorf("%w: %s: %v", domain.ErrResolveFailed, identifier, checkErr)
				}
				if already, ok := invite.(*tg.ChatInviteAlready); ok {
					return c.groupInfoFromChat(ctx, already.Chat)
				}
			}
			return nil, fmt.Errorf("failed to import chat invite: %w", err)
		}
		if u, ok := updates.(*tg.Updates); ok {
			for _, chat := range u.Chats {
				info, err := c.groupInfoFromChat(ctx, chat)
				if err == nil {
					return info, nil
				}
			}
		}
		return nil, fmt.Errorf("%w: invite %s yielded no chat", domain.ErrResolveFailed, identifier)
	}

	inputPeer, err := c.resolvePeer(ctx, value)
	if err != nil {
		return nil, err
	}

	if channel, ok := inputPeer.(*tg.InputPeerChannel); ok {
		_, err = api.ChannelsJoinChannel(ctx, &tg.InputChannel{
			ChannelID:  channel.ChannelID,
			AccessHash: channel.AccessHash,
		})
		if err != nil && !tgerr.Is(err, "USER_ALREADY_PARTICIPANT") {
			return nil, fmt.Errorf("failed to join channel: %w", err)
		}
	}

	return c.Resolve(ctx, value)
}

// groupInfoFromChat converts a chat object into GroupInfo, filling the
// description and member count from the full channel when available
func (c *MTProtoClient) groupInfoFromChat(ctx context.Context, chat tg.ChatClass) (*domain.GroupInfo, error) {
	switch v := chat.(type) {
	case *tg.Channel:
		input := &tg.InputPeerChannel{ChannelID: v.ID, AccessHash: v.AccessHash}
		c.cachePeer(v.ID, v.Username, input)

		info := &domain.GroupInfo{
			TelegramID:  v.ID,
			Title:       v.Title,
			Username:    v.Username,
			MemberCount: v.ParticipantsCount,
		}

		api, err := c.checkReady()
		if err != nil {
			return info, nil
		}
		full, err := api.ChannelsGetFullChannel(ctx, &tg.InputChannel{
			ChannelID:  v.ID,
			AccessHash: v.AccessHash,
		})
		if err != nil {
			c.logger.Debug().Err(err).Int64("channel_id", v.ID).Msg("failed to load full channel")
			return info, nil
		}
		if channelFull, ok := full.FullChat.(*tg.ChannelFull); ok {
			info.Description = channelFull.About
			if channelFull.ParticipantsCount > 0 {
				info.MemberCount = channelFull.ParticipantsCount
			}
		}
		return info, nil

	case *tg.Chat:
		c.cachePeer(v.ID, "", &tg.InputPeerChat{ChatID: v.ID})
		return &domain.GroupInfo{
			TelegramID:  v.ID,
			Title:       v.Title,
			MemberCount: v.ParticipantsCount,
		}, nil
	}

	return nil, fmt.Errorf("%w: not a group or channel", domain.ErrResolveFailed)
}

// convertMessage maps one raw Telegram message to the domain shape
func convertMessage(msg *tg.Message, users map[int64]*tg.User) domain.CollectedMessage {
	var senderID int64
	var senderName string
	if from, ok := msg.FromID.(*tg.PeerUser); ok {
		senderID = from.UserID
		if user, ok := users[from.UserID]; ok {
			senderName = displayName(user)
		}
	}

	return domain.CollectedMessage{
		TelegramMessageID: int64(msg.ID),
		SenderID:          senderID,
		SenderName:        senderName,
		Content:           msg.Message,
		MediaType:         classifyMedia(msg.Media),
		Date:              time.Unix(int64(msg.Date), 0),
	}
}

// displayName builds a human readable name for a user
func displayName(user *tg.User) string {
	if user.Username != "" {
		return user.Username
	}
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	return name
}

// classifyMedia maps Telegram media to the stored media type
func classifyMedia(media tg.MessageMediaClass) domain.MediaType {
	switch m := media.(type) {
	case nil:
		return domain.MediaTypeText
	case *tg.MessageMediaPhoto:
		return domain.MediaTypePhoto
	case *tg.MessageMediaDocument:
		doc, ok := m.Document.(*tg.Document)
		if !ok {
			return domain.MediaTypeDocument
		}
		for _, attr := range doc.Attributes {
			switch attr.(type) {
			case *tg.DocumentAttributeVideo:
				return domain.MediaTypeVideo
			case *tg.DocumentAttributeAudio:
				return domain.MediaTypeAudio
			}
		}
		return domain.MediaTypeDocument
	default:
		return domain.MediaTypeOther
	}
}
