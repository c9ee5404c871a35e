// Package bot exposes the focus ledger over Telegram.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"flowstate/internal/analytics"
	"flowstate/internal/apperrors"
	"flowstate/internal/model"
	"flowstate/internal/service"
)

const (
	cbLogPrefix = "log:"

	menuLabelToday      = "📊 Today"
	menuLabelWeek       = "📈 Week"
	menuLabelCategories = "📂 Categories"
	menuLabelHelp       = "ℹ️ Help"
)

// messenger is the part of tgbotapi.BotAPI the bot talks through.
type messenger interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot aggregates the Telegram API with the ledger services.
type Bot struct {
	api      *tgbotapi.BotAPI
	out      messenger
	accounts *service.AccountService
	ledger   *service.LedgerService
	calc     *analytics.Calculator
	reports  *service.ReportService
	logger   *slog.Logger
}

func New(token string, accounts *service.AccountService, ledger *service.LedgerService, calc *analytics.Calculator, reports *service.ReportService) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	b := newBot(api, accounts, ledger, calc, reports)
	b.api = api
	b.logger.Info("bot authorized", "account", api.Self.UserName)
	return b, nil
}

func newBot(out messenger, accounts *service.AccountService, ledger *service.LedgerService, calc *analytics.Calculator, reports *service.ReportService) *Bot {
	return &Bot{
		out:      out,
		accounts: accounts,
		ledger:   ledger,
		calc:     calc,
		reports:  reports,
		logger:   slog.Default().With("module", "bot"),
	}
}

// Start polls updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.logger.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				b.logger.Error("handle callback", "error", err)
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				b.logger.Error("handle message", "error", err)
			}
		}
	}
	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}
	if msg.IsCommand() {
		b.logger.Info("command received", "operation", msg.Command(), "telegram_id", msg.From.ID)
		return b.handleCommand(ctx, msg)
	}
	if handled, err := b.handleMenuAlias(ctx, msg); handled {
		return err
	}
	return b.sendText(msg.Chat.ID, "I did not get that. Try /log 25 or /help for the command list.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.handleHelp(msg)
	case "link":
		return b.handleLink(ctx, msg)
	case "log":
		return b.handleLog(ctx, msg, model.StatusCompleted)
	case "abort":
		return b.handleLog(ctx, msg, model.StatusAborted)
	case "today":
		return b.handleToday(ctx, msg)
	case "week":
		return b.handleWeek(ctx, msg)
	case "categories":
		return b.handleCategories(ctx, msg)
	case "report":
		return b.handleReport(ctx, msg)
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(msg.Text)) {
	case strings.ToLower(menuLabelToday):
		return true, b.handleToday(ctx, msg)
	case strings.ToLower(menuLabelWeek):
		return true, b.handleWeek(ctx, msg)
	case strings.ToLower(menuLabelCategories):
		return true, b.handleCategories(ctx, msg)
	case strings.ToLower(menuLabelHelp):
		return true, b.handleHelp(msg)
	default:
		return false, nil
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil {
		return nil
	}
	if _, err := b.out.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.logger.Warn("callback ack", "error", err)
	}
	if !strings.HasPrefix(cb.Data, cbLogPrefix) {
		return nil
	}
	minutes, err := parseMinutes(strings.TrimPrefix(cb.Data, cbLogPrefix))
	if err != nil {
		return nil
	}
	user, ok, err := b.linkedUser(ctx, cb.From.ID, cb.Message.Chat.ID)
	if !ok {
		return err
	}
	return b.recordSession(ctx, cb.Message.Chat.ID, user, logRequest{Minutes: minutes}, model.StatusCompleted)
}

// SendDailyReports sends the digest to every linked account.
func (b *Bot) SendDailyReports(ctx context.Context) error {
	users, err := b.accounts.Linked(ctx)
	if err != nil {
		return err
	}
	now := b.calc.Now()
	sent := 0
	for _, user := range users {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if user.TelegramID == nil {
			continue
		}
		text, err := b.reports.DailyDigest(ctx, user, now)
		if err != nil {
			b.logger.Error("build digest", "user_id", user.ID, "error", err)
			continue
		}
		if err := b.sendText(*user.TelegramID, text); err != nil {
			b.logger.Error("send digest", "user_id", user.ID, "error", err)
			continue
		}
		sent++
	}
	b.logger.Info("digests sent", "operation", "daily_digest", "outcome", "success", "count", sent)
	return nil
}

// linkedUser resolves the account bound to telegramID. When none is bound it tells the chat
// how to link and reports ok=false.
func (b *Bot) linkedUser(ctx context.Context, telegramID, chatID int64) (*model.User, bool, error) {
	user, err := b.accounts.ByTelegram(ctx, telegramID)
	if err == nil {
		return user, true, nil
	}
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, false, b.sendText(chatID, "This chat is not linked yet. Send /link &lt;username&gt; &lt;password&gt;.")
	}
	return nil, false, err
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.out.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.out.Send(msg)
	return err
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelToday),
			tgbotapi.NewKeyboardButton(menuLabelWeek),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelCategories),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = false
	return kb
}

func quickLogKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("+25m", cbLogPrefix+"25"),
			tgbotapi.NewInlineKeyboardButtonData("+50m", cbLogPrefix+"50"),
		),
	)
}
