package telegram

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/sandevgo/tutorbot/internal/config"
	"github.com/sandevgo/tutorbot/internal/core"
	"github.com/sandevgo/tutorbot/internal/service/conversation"
	"github.com/sandevgo/tutorbot/pkg/log"
	"github.com/sandevgo/tutorbot/pkg/retry"
	tele "gopkg.in/telebot.v3"
)

const baseContextKey = "base_context"

type Conversation interface {
	Send(ctx context.Context, req conversation.Request) (conversation.Reply, error)
}

type Bot struct {
	bot     *tele.Bot
	sender  *sender
	conv    Conversation
	router  core.CmdRouter
	retrier *retry.Retrier
	ownerID int64

	mu       sync.Mutex
	sessions map[int64]string // chat id -> active session
}

func NewBot(
	ctx context.Context,
	cfg *config.TelegramConfig,
	conv Conversation,
	router core.CmdRouter,
) (*Bot, error) {
	pref := tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	bot := newBot(conv, router, cfg.OwnerID)
	bot.bot = b
	bot.sender = newSender(b)

	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			c.Set(baseContextKey, ctx)
			return next(c)
		}
	})

	// Only the owner may talk to the bot.
	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if c.Sender() == nil || c.Sender().ID != bot.ownerID {
				return nil
			}
			return next(c)
		}
	})

	b.Handle(tele.OnText, bot.handleMessage)

	return bot, nil
}

func newBot(conv Conversation, router core.CmdRouter, ownerID int64) *Bot {
	cfg := retry.NewDefaultConfig()
	cfg.Retryable = core.IsRetryable

	return &Bot{
		conv:     conv,
		router:   router,
		retrier:  retry.NewRetrier(cfg),
		ownerID:  ownerID,
		sessions: make(map[int64]string),
	}
}

func (b *Bot) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Msg("starting telegram bot")
	b.bot.Start()
	return nil
}

func (b *Bot) Shutdown(ctx context.Context) error {
	b.bot.Stop()
	return nil
}

func (b *Bot) handleMessage(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)
	_ = c.Notify(tele.Typing)

	text := b.respond(ctx, c.Chat().ID, strconv.FormatInt(c.Sender().ID, 10), c.Text())
	if text == "" {
		return nil
	}
	return b.sender.sendMarkdown(ctx, c.Chat(), text)
}

// respond runs one incoming message and returns the markdown answer.
func (b *Bot) respond(ctx context.Context, chatID int64, userID, text string) string {
	logger := log.FromCtx(ctx)
	sessionID := b.session(chatID)

	scope := core.CommandScope{UserID: userID, SessionID: sessionID}
	if res, ok := b.router.Execute(ctx, scope, text); ok {
		switch {
		case res.SessionID != "":
			b.setSession(chatID, res.SessionID)
		case res.Detach:
			b.setSession(chatID, "")
		}
		return res.Text
	}

	var reply conversation.Reply
	err := b.retrier.Do(ctx, func(ctx context.Context) error {
		var err error
		reply, err = b.conv.Send(ctx, conversation.Request{
			UserID:    userID,
			SessionID: sessionID,
			Text:      text,
		})
		if id, _, ok := conversation.SessionOf(err); ok {
			sessionID = id
			b.setSession(chatID, id)
		}
		return err
	})
	if err != nil {
		logger.Error().Err(err).Int64("chat_id", chatID).Msg("turn failed")
		return fmt.Sprintf("error: %v", err)
	}

	b.setSession(chatID, reply.SessionID)
	return reply.Content
}

func (b *Bot) session(chatID int64) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sessions[chatID]
}

func (b *Bot) setSession(chatID int64, sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if sessionID == "" {
		delete(b.sessions, chatID)
		return
	}
	b.sessions[chatID] = sessionID
}
