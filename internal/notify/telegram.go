package notify

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"shareit/internal/config"
	"shareit/internal/events"
)

const notifyQueueSize = 64

// MessageSender is the subset of the bot API used by the notifier.
type MessageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier pushes booking lifecycle events into an ops chat.
// Sends run in a background loop; event handlers only enqueue, so the
// request path never waits on the Telegram API.
type TelegramNotifier struct {
	bot    MessageSender
	chatID int64
	queue  chan string
	done   chan struct{}
	once   sync.Once
	log    zerolog.Logger
}

func NewTelegramNotifier(cfg config.NotifyConfig, logger zerolog.Logger) (*TelegramNotifier, error) {
	httpClient := &http.Client{Timeout: 10 * time.Second}
	bot, err := tgbotapi.NewBotAPIWithClient(cfg.TelegramToken, tgbotapi.APIEndpoint, httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return newNotifier(bot, cfg.ChatID, logger), nil
}

// NewTelegramNotifierWithSender is used by tests to inject a fake sender.
func NewTelegramNotifierWithSender(sender MessageSender, chatID int64, logger zerolog.Logger) *TelegramNotifier {
	return newNotifier(sender, chatID, logger)
}

func newNotifier(sender MessageSender, chatID int64, logger zerolog.Logger) *TelegramNotifier {
	n := &TelegramNotifier{
		bot:    sender,
		chatID: chatID,
		queue:  make(chan string, notifyQueueSize),
		done:   make(chan struct{}),
		log:    logger,
	}
	go n.run()
	return n
}

// Subscribe attaches the notifier to booking lifecycle events.
func (n *TelegramNotifier) Subscribe(bus *events.EventBus) {
	bus.Subscribe(events.EventBookingCreated, n.handle("Новое бронирование"))
	bus.Subscribe(events.EventBookingApproved, n.handle("Бронирование подтверждено"))
	bus.Subscribe(events.EventBookingRejected, n.handle("Бронирование отклонено"))
}

// Close stops the send loop after the queued notifications drain.
func (n *TelegramNotifier) Close() {
	n.once.Do(func() { close(n.queue) })
	<-n.done
}

func (n *TelegramNotifier) run() {
	defer close(n.done)
	for text := range n.queue {
		if _, err := n.bot.Send(tgbotapi.NewMessage(n.chatID, text)); err != nil {
			n.log.Error().Err(err).Msg("failed to send telegram notification")
		}
	}
}

func (n *TelegramNotifier) handle(title string) events.EventHandler {
	return func(event *events.Event) error {
		var payload events.BookingEventPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			n.log.Error().Err(err).Str("event", event.Type).Msg("failed to decode booking event")
			return err
		}

		text := fmt.Sprintf("%s #%d\nВещь: %s\nПользователь: %s\nПериод: %s — %s\nСтатус: %s",
			title,
			payload.BookingID,
			payload.ItemName,
			payload.BookerName,
			payload.Start.Format("02.01.2006 15:04"),
			payload.End.Format("02.01.2006 15:04"),
			payload.Status,
		)

		// Обработчик только ставит сообщение в очередь
		select {
		case n.queue <- text:
		default:
			n.log.Warn().Str("event", event.Type).Msg("notification queue full, message dropped")
		}
		return nil
	}
}
