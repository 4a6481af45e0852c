package notify

import (
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// LowStock шлёт предупреждение в админ-чат, когда остаток товара
// упал до порога дозаказа. Ошибки отправки только логируются.
type LowStock struct {
	log    *slog.Logger
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewLowStock возвращает (nil, nil) при пустом токене — оповещения выключены.
func NewLowStock(log *slog.Logger, token string, chatID int64) (*LowStock, error) {
	if token == "" {
		return nil, nil
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &LowStock{log: log, bot: bot, chatID: chatID}, nil
}

func (n *LowStock) Notify(name, sku string, qty, reorder int64) {
	if n == nil {
		return
	}
	text := fmt.Sprintf("Низкий остаток «%s» (%s): %d шт. при пороге %d.", name, sku, qty, reorder)
	if _, err := n.bot.Send(tgbotapi.NewMessage(n.chatID, text)); err != nil {
		n.log.Error("low stock alert failed", "sku", sku, "err", err)
	}
}
