// Package telegram provides optional settlement and claim notifications via
// the Telegram Bot API.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/samsuzzoha404/Tick-Deriv/internal/models"
)

// BalanceFunc reads the current balance for an address; backs the /balance
// bot command.
type BalanceFunc func(address string) float64

// Client handles Telegram notifications.
type Client struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
	balanceOf      BalanceFunc
	address        string
}

// NewClient creates a new Telegram client reporting on the given account.
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration, address string, balanceOf BalanceFunc) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
		balanceOf:      balanceOf,
		address:        address,
	}, nil
}

// ListenForCommands starts a goroutine that polls for Telegram updates and
// handles bot commands. It returns immediately; the goroutine stops when ctx
// is cancelled.
func (c *Client) ListenForCommands(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := c.bot.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.bot.StopReceivingUpdates()
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				if update.Message != nil && update.Message.IsCommand() {
					c.handleCommand(update.Message)
				}
			}
		}
	}()
}

func (c *Client) handleCommand(msg *tgbotapi.Message) {
	switch msg.Command() {
	case "ping":
		reply := tgbotapi.NewMessage(msg.Chat.ID, "Pong")
		c.bot.Send(reply) //nolint:errcheck
	case "balance":
		text := fmt.Sprintf("Balance of %s: %.2f", shortAddress(c.address), c.balanceOf(c.address))
		reply := tgbotapi.NewMessage(msg.Chat.ID, text)
		c.bot.Send(reply) //nolint:errcheck
	}
}

// SendClaim reports a claimed winning.
func (c *Client) SendClaim(address string, roundID int64, amount float64) error {
	text := fmt.Sprintf("💰 *Winnings claimed*\nRound %d, account %s: \\+%s",
		roundID,
		escapeMarkdownV2(shortAddress(address)),
		escapeMarkdownV2(fmt.Sprintf("%.2f", amount)),
	)
	return c.sendMarkdownV2(text)
}

// SendSettlement reports a completed round's outcome.
func (c *Client) SendSettlement(round *models.Round) error {
	result := "undecided"
	if round.Result != nil {
		result = string(*round.Result)
	}
	emoji := "📈"
	if round.Result != nil && *round.Result == models.DirectionDown {
		emoji = "📉"
	}
	text := fmt.Sprintf("%s *Round %d settled*: %s\nPools: up %s / down %s",
		emoji,
		round.ID,
		escapeMarkdownV2(result),
		escapeMarkdownV2(fmt.Sprintf("%.0f", round.UpPool)),
		escapeMarkdownV2(fmt.Sprintf("%.0f", round.DownPool)),
	)
	return c.sendMarkdownV2(text)
}

// SendError sends an engine error notification.
// Call this only on the first occurrence of a consecutive error sequence.
func (c *Client) SendError(cycleErr error) error {
	text := fmt.Sprintf("⚠️ *Engine error*\n`%s`", escapeMarkdownV2(cycleErr.Error()))
	return c.sendMarkdownV2(text)
}

// sendMarkdownV2 sends a MarkdownV2 message with linear-backoff retry.
func (c *Client) sendMarkdownV2(text string) error {
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = "MarkdownV2"

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		if _, err := c.bot.Send(msg); err == nil {
			return nil
		} else {
			lastErr = err
		}
		time.Sleep(c.retryDelayBase * time.Duration(i+1))
	}
	return fmt.Errorf("failed after %d retries: %w", c.maxRetries, lastErr)
}

func shortAddress(address string) string {
	if len(address) <= 12 {
		return address
	}
	return address[:6] + "…" + address[len(address)-4:]
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2.
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/4)
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
