package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"time"

	pubnub "github.com/pubnub/go/v7"

	"ticketbot/internal/status"
)

// ChatSender delivers outbound text to a chat identity.
type ChatSender interface {
	SendText(ctx context.Context, chatID, text string) error
}

// PubNubSender publishes outbound messages on the per-user channel.
type PubNubSender struct {
	pn *pubnub.PubNub
}

func NewPubNubSender(pn *pubnub.PubNub) *PubNubSender {
	return &PubNubSender{pn: pn}
}

func (s *PubNubSender) SendText(ctx context.Context, chatID, text string) error {
	channel := fmt.Sprintf("user-%s", chatID)
	_, _, err := s.pn.Publish().
		Channel(channel).
		Message(map[string]any{
			"type": "text",
			"body": text,
		}).
		Execute()
	if err != nil {
		return status.NewBackendError("chat send", err)
	}
	return nil
}

// InboundMessage is the payload the chat transport publishes for every
// incoming user message.
type InboundMessage struct {
	ChatID string `json:"chat_id"`
	Name   string `json:"name"`
	Text   string `json:"text"`
}

// ChatListener subscribes to the inbound channel and feeds messages
// into the conversation engine.
type ChatListener struct {
	pn      *pubnub.PubNub
	channel string
	engine  *ConversationService
}

func NewChatListener(pn *pubnub.PubNub, channel string, engine *ConversationService) *ChatListener {
	return &ChatListener{pn: pn, channel: channel, engine: engine}
}

func (l *ChatListener) Start(ctx context.Context) {
	listener := pubnub.NewListener()
	l.pn.AddListener(listener)
	l.pn.Subscribe().Channels([]string{l.channel}).Execute()

	go func() {
		for {
			select {
			case message := <-listener.Message:
				go l.handleMessage(ctx, message)

			case st := <-listener.Status:
				switch st.Category {
				case pubnub.PNConnectedCategory:
					log.Println("connected to pubnub")
				case pubnub.PNReconnectedCategory:
					log.Println("reconnected to pubnub")
				case pubnub.PNDisconnectedCategory:
					log.Println("disconnected from pubnub")
				}

			case <-ctx.Done():
				log.Println("close chat listener")
				l.pn.Unsubscribe().Channels([]string{l.channel}).Execute()
				return
			}
		}
	}()
}

func (l *ChatListener) handleMessage(ctx context.Context, message *pubnub.PNMessage) {
	data, ok := message.Message.(map[string]any)
	if !ok {
		return
	}

	jsonData, _ := json.Marshal(data)
	var inbound InboundMessage
	if err := json.Unmarshal(jsonData, &inbound); err != nil {
		slog.Error("chat listener: parse inbound message", "error", err)
		return
	}
	if inbound.ChatID == "" {
		return
	}

	handleCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	l.engine.ProcessInboundMessage(handleCtx, inbound.ChatID, inbound.Name, inbound.Text)
}
