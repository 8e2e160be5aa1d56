package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"messaging-service/internal/models"
	"messaging-service/internal/observability"
	"messaging-service/internal/registry"
	"messaging-service/internal/repositories"
)

// ErrNotParticipant is returned when the acting user does not belong to the
// target conversation.
var ErrNotParticipant = errors.New("not a conversation participant")

// Service routes accepted events: persist first, then create notifications,
// then fan out to live connections.
type Service interface {
	SendMessage(ctx context.Context, senderID int, conversationID int, content string, mentions []int) (models.Message, error)
	React(ctx context.Context, userID int, messageID int, emoji string) ([]models.ReactionGroup, error)
	MarkRead(ctx context.Context, userID int, conversationID int, messageID int) error
	Typing(ctx context.Context, userID int, conversationID int) error
}

// Dispatcher implements Service over the repositories and the connection
// registry.
type Dispatcher struct {
	conversations repositories.ConversationRepository
	messages      repositories.MessageRepository
	notifications repositories.NotificationRepository
	registry      *registry.Registry
}

// New constructs a Dispatcher.
func New(
	conversations repositories.ConversationRepository,
	messages repositories.MessageRepository,
	notifications repositories.NotificationRepository,
	reg *registry.Registry,
) *Dispatcher {
	return &Dispatcher{
		conversations: conversations,
		messages:      messages,
		notifications: notifications,
		registry:      reg,
	}
}

// SendMessage persists the message, creates notification rows for recipients
// and pushes the message to every live connection in each recipient's session
// group. Persistence completes before any fan-out so a client querying its
// inbox right after a push sees the same message.
func (d *Dispatcher) SendMessage(ctx context.Context, senderID int, conversationID int, content string, mentions []int) (models.Message, error) {
	participants, err := d.conversations.Participants(ctx, conversationID)
	if err != nil {
		return models.Message{}, fmt.Errorf("load participants: %w", err)
	}
	if !contains(participants, senderID) {
		return models.Message{}, ErrNotParticipant
	}

	msg, err := d.messages.CreateMessage(ctx, conversationID, senderID, content, mentions, nil)
	if err != nil {
		return models.Message{}, fmt.Errorf("persist message: %w", err)
	}

	mentioned := map[int]struct{}{}
	for _, id := range mentions {
		if id != senderID {
			mentioned[id] = struct{}{}
		}
	}

	recipients := make([]int, 0, len(participants)+len(mentioned))
	seen := map[int]struct{}{senderID: {}}
	for _, id := range participants {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			recipients = append(recipients, id)
		}
	}
	for id := range mentioned {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			recipients = append(recipients, id)
		}
	}

	// Mentioned users always get a notification row; other recipients only
	// when they have no live connection to receive the push.
	for _, id := range recipients {
		notifType := models.NotificationMessage
		if _, ok := mentioned[id]; ok {
			notifType = models.NotificationMention
		} else if d.registry.ActiveCount(id) > 0 {
			continue
		}
		messageID := msg.ID
		if _, err := d.notifications.CreateNotification(ctx, id, &messageID, notifType); err != nil {
			log.Printf("create notification user=%d message=%d: %v", id, msg.ID, err)
		}
	}

	d.fanout(recipients, models.PushEvent{Type: models.PushNewMessage, Data: msg})
	return msg, nil
}

// React applies an emoji reaction. Repeating the same (user, emoji) pair on a
// message is a no-op: no notification, no fan-out, same stored state.
func (d *Dispatcher) React(ctx context.Context, userID int, messageID int, emoji string) ([]models.ReactionGroup, error) {
	msg, err := d.messages.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}

	member, err := d.conversations.IsParticipant(ctx, msg.ConversationID, userID)
	if err != nil {
		return nil, fmt.Errorf("verify membership: %w", err)
	}
	if !member {
		return nil, ErrNotParticipant
	}

	added, err := d.messages.AddReaction(ctx, messageID, userID, emoji)
	if err != nil {
		return nil, fmt.Errorf("persist reaction: %w", err)
	}

	groups, err := d.messages.Reactions(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("load reactions: %w", err)
	}
	if !added {
		return groups, nil
	}

	if msg.SenderID != userID {
		msgID := messageID
		if _, err := d.notifications.CreateNotification(ctx, msg.SenderID, &msgID, models.NotificationReaction); err != nil {
			log.Printf("create reaction notification user=%d message=%d: %v", msg.SenderID, messageID, err)
		}
	}

	participants, err := d.conversations.Participants(ctx, msg.ConversationID)
	if err != nil {
		log.Printf("load participants for reaction fanout: %v", err)
		return groups, nil
	}
	recipients := without(participants, userID)
	d.fanout(recipients, models.PushEvent{Type: models.PushReaction, Data: map[string]interface{}{
		"message_id": messageID,
		"user_id":    userID,
		"emoji":      emoji,
		"reactions":  groups,
	}})
	return groups, nil
}

// MarkRead advances the user's read position and fans the receipt out to the
// other participants.
func (d *Dispatcher) MarkRead(ctx context.Context, userID int, conversationID int, messageID int) error {
	participants, err := d.conversations.Participants(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("load participants: %w", err)
	}
	if !contains(participants, userID) {
		return ErrNotParticipant
	}

	if err := d.conversations.UpsertReadState(ctx, conversationID, userID, messageID); err != nil {
		return fmt.Errorf("persist read state: %w", err)
	}

	d.fanout(without(participants, userID), models.PushEvent{Type: models.PushReadReceipt, Data: map[string]interface{}{
		"conversation_id": conversationID,
		"user_id":         userID,
		"message_id":      messageID,
	}})
	return nil
}

// Typing fans a typing indicator out to the other participants. Nothing is
// persisted.
func (d *Dispatcher) Typing(ctx context.Context, userID int, conversationID int) error {
	participants, err := d.conversations.Participants(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("load participants: %w", err)
	}
	if !contains(participants, userID) {
		return ErrNotParticipant
	}

	d.fanout(without(participants, userID), models.PushEvent{Type: models.PushTyping, Data: map[string]interface{}{
		"conversation_id": conversationID,
		"user_id":         userID,
	}})
	return nil
}

// fanout pushes one payload to every live connection of each user, at most
// once per connection. Delivery is best-effort: a failed push drops that
// connection and the stored state stays authoritative.
func (d *Dispatcher) fanout(userIDs []int, event models.PushEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("marshal push event: %v", err)
		return
	}

	for _, userID := range userIDs {
		for _, conn := range d.registry.Connections(userID) {
			if err := conn.Sender.Push(payload); err != nil {
				log.Printf("push to connection %s failed: %v", conn.ID, err)
				_ = conn.Sender.Close()
				d.registry.Unregister(conn.ID)
				observability.IncWSEvent("push_failed")
				continue
			}
			observability.IncWSEvent("push")
		}
	}
}

func contains(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func without(ids []int, id int) []int {
	out := make([]int, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
