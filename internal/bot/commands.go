package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"flowstate/internal/analytics"
	"flowstate/internal/apperrors"
	"flowstate/internal/model"
	"flowstate/internal/service"
)

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "there"
	}
	status := "Link your account with /link &lt;username&gt; &lt;password&gt; to start logging."
	if user, err := b.accounts.ByTelegram(ctx, msg.From.ID); err == nil {
		status = fmt.Sprintf("Linked as <b>%s</b>.", escape(user.Username))
	}
	text := fmt.Sprintf("👋 Hi, %s!\n<b>I keep your focus sessions and stats.</b>\n\n%s\n\n%s",
		escape(name), status, helpText)
	return b.sendText(msg.Chat.ID, text)
}

const helpText = "Commands:\n" +
	"• /link &lt;username&gt; &lt;password&gt; — bind this chat to your account\n" +
	"• /log &lt;minutes&gt; [category] — record a completed session\n" +
	"• /abort &lt;minutes&gt; [category] — record an aborted session\n" +
	"• /today — today's focus time\n" +
	"• /week — the last 7 days\n" +
	"• /categories — your categories with totals\n" +
	"• /report — the daily digest now"

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	return b.sendText(msg.Chat.ID, "ℹ️ <b>Help</b>\n"+helpText)
}

func (b *Bot) handleLink(ctx context.Context, msg *tgbotapi.Message) error {
	username, password, err := parseLinkArgs(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Usage: /link &lt;username&gt; &lt;password&gt;")
	}
	// The message carries a password; drop it from the chat history.
	if _, err := b.out.Request(tgbotapi.NewDeleteMessage(msg.Chat.ID, msg.MessageID)); err != nil {
		b.logger.Warn("delete link message", "error", err)
	}
	user, err := b.accounts.LinkTelegram(ctx, msg.From.ID, username, password)
	if err != nil {
		if errors.Is(err, apperrors.ErrUnauthorized) {
			return b.sendText(msg.Chat.ID, "Incorrect username or password.")
		}
		return err
	}
	b.logger.Info("chat linked", "operation", "link", "outcome", "success", "user_id", user.ID)
	return b.sendText(msg.Chat.ID, fmt.Sprintf("✅ Linked to <b>%s</b>.", escape(user.Username)))
}

func (b *Bot) handleLog(ctx context.Context, msg *tgbotapi.Message, status model.SessionStatus) error {
	user, ok, err := b.linkedUser(ctx, msg.From.ID, msg.Chat.ID)
	if !ok {
		return err
	}
	req, err := parseLogArgs(msg.CommandArguments())
	if err != nil {
		if status == model.StatusCompleted && strings.TrimSpace(msg.CommandArguments()) == "" {
			return b.sendWithReplyMarkup(msg.Chat.ID, "How long did you focus?", quickLogKeyboard())
		}
		return b.sendText(msg.Chat.ID, fmt.Sprintf("%s\nUsage: /%s &lt;minutes&gt; [category]", escape(err.Error()), msg.Command()))
	}
	return b.recordSession(ctx, msg.Chat.ID, user, req, status)
}

func (b *Bot) recordSession(ctx context.Context, chatID int64, user *model.User, req logRequest, status model.SessionStatus) error {
	input := service.SessionInput{DurationMinutes: req.Minutes, Status: string(status)}
	label := ""
	if req.Category != "" {
		category, err := b.ledger.CategoryByName(ctx, user.ID, req.Category)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return b.sendText(chatID, fmt.Sprintf("No category named <b>%s</b>. See /categories.", escape(req.Category)))
			}
			return err
		}
		input.CategoryID = &category.ID
		label = fmt.Sprintf(" <i>(%s)</i>", escape(category.Name))
	}
	if _, err := b.ledger.CreateSession(ctx, user.ID, input); err != nil {
		if errors.Is(err, apperrors.ErrInvalidInput) {
			return b.sendText(chatID, escape(err.Error()))
		}
		return err
	}
	icon := "✅"
	if status == model.StatusAborted {
		icon = "⏹"
	}
	return b.sendText(chatID, fmt.Sprintf("%s Logged %s%s.", icon, service.FormatMinutes(req.Minutes), label))
}

func (b *Bot) handleToday(ctx context.Context, msg *tgbotapi.Message) error {
	user, ok, err := b.linkedUser(ctx, msg.From.ID, msg.Chat.ID)
	if !ok {
		return err
	}
	stats, err := b.calc.Daily(ctx, analytics.Filter{UserID: user.ID})
	if err != nil {
		return err
	}
	return b.sendText(msg.Chat.ID, formatToday(stats))
}

func (b *Bot) handleWeek(ctx context.Context, msg *tgbotapi.Message) error {
	user, ok, err := b.linkedUser(ctx, msg.From.ID, msg.Chat.ID)
	if !ok {
		return err
	}
	days, err := b.calc.Weekly(ctx, analytics.Filter{UserID: user.ID})
	if err != nil {
		return err
	}
	return b.sendText(msg.Chat.ID, "📈 <b>Last 7 days</b>\n"+service.FormatTrend(days))
}

func (b *Bot) handleCategories(ctx context.Context, msg *tgbotapi.Message) error {
	user, ok, err := b.linkedUser(ctx, msg.From.ID, msg.Chat.ID)
	if !ok {
		return err
	}
	categories, err := b.ledger.ListCategories(ctx, user.ID, 0, 0)
	if err != nil {
		return err
	}
	shares, err := b.calc.Distribution(ctx, analytics.Filter{UserID: user.ID})
	if err != nil {
		return err
	}
	return b.sendText(msg.Chat.ID, formatCategories(categories, shares))
}

func (b *Bot) handleReport(ctx context.Context, msg *tgbotapi.Message) error {
	user, ok, err := b.linkedUser(ctx, msg.From.ID, msg.Chat.ID)
	if !ok {
		return err
	}
	text, err := b.reports.DailyDigest(ctx, *user, b.calc.Now())
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not build the report: %s", escape(err.Error())))
	}
	return b.sendText(msg.Chat.ID, text)
}
