// Package telegram connects a bot.Handler to the Telegram Bot API, over long
// polling or a webhook.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"hisob/internal/bot"
	"hisob/internal/log"
)

// MaxDocumentSize caps /import downloads.
const MaxDocumentSize = 10 << 20

// API is the subset of *tgbotapi.BotAPI the transport uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
	HandleUpdate(r *http.Request) (*tgbotapi.Update, error)
}

// Updater is the long-polling half of *tgbotapi.BotAPI.
type Updater interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Handler answers authorized messages.
type Handler interface {
	HandleText(ctx context.Context, text string) bot.Response
	HandleDocument(ctx context.Context, name string, data []byte) bot.Response
}

type Transport struct {
	api     API
	auth    *bot.Authorizer
	handler Handler
	client  *http.Client
	logger  *log.Logger
}

type Option func(*Transport)

// WithHTTPClient sets the client used to download documents.
func WithHTTPClient(c *http.Client) Option {
	return func(t *Transport) { t.client = c }
}

func WithLogger(l *log.Logger) Option {
	return func(t *Transport) { t.logger = l }
}

func New(api API, auth *bot.Authorizer, handler Handler, opts ...Option) *Transport {
	t := &Transport{
		api:     api,
		auth:    auth,
		handler: handler,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.WithComponent(log.ComponentTelegram)
	return t
}

// RegisterCommands publishes the command menu.
func (t *Transport) RegisterCommands() error {
	cmds := bot.Commands()
	menu := make([]tgbotapi.BotCommand, 0, len(cmds))
	for _, c := range cmds {
		menu = append(menu, tgbotapi.BotCommand{Command: c.Name, Description: c.Description})
	}
	if _, err := t.api.Request(tgbotapi.NewSetMyCommands(menu...)); err != nil {
		return fmt.Errorf("set commands: %w", err)
	}
	return nil
}

// Poll receives updates until ctx is done. Any webhook is removed first,
// since Telegram refuses getUpdates while one is set.
func (t *Transport) Poll(ctx context.Context, up Updater) error {
	if _, err := t.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}

	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 60
	updates := up.GetUpdatesChan(cfg)
	defer up.StopReceivingUpdates()

	t.logger.InfoContext(ctx, "Polling for updates", log.FieldOperation, log.OpStartup)
	for {
		select {
		case <-ctx.Done():
			return nil
		case u, ok := <-updates:
			if !ok {
				return nil
			}
			t.HandleUpdate(ctx, u)
		}
	}
}

// SetWebhook points Telegram at url.
func (t *Transport) SetWebhook(url string) error {
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return fmt.Errorf("webhook url: %w", err)
	}
	if _, err := t.api.Request(wh); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	t.logger.Info("Webhook registered", "url", url)
	return nil
}

// WebhookHandler decodes one update per request. Telegram retries on any
// non-2xx status, so only malformed bodies are refused.
func (t *Transport) WebhookHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		u, err := t.api.HandleUpdate(r)
		if err != nil {
			t.logger.WarnContext(r.Context(), "Malformed webhook update", log.FieldError, err)
			http.Error(w, "bad update", http.StatusBadRequest)
			return
		}
		t.HandleUpdate(context.WithoutCancel(r.Context()), *u)
		w.WriteHeader(http.StatusOK)
	})
}

// HandleUpdate authorizes the sender, runs the handler and sends the reply.
func (t *Transport) HandleUpdate(ctx context.Context, u tgbotapi.Update) {
	msg := u.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return
	}
	chatID := msg.Chat.ID

	if err := t.auth.Check(msg.From.ID); err != nil {
		t.logger.WarnContext(ctx, "Unauthorized sender",
			log.NewFields().WithSender(msg.From.ID, 0).WithOperation(log.OpAuth).ToSlice()...)
		t.reply(ctx, chatID, bot.Response{Text: bot.DeniedText})
		return
	}

	var resp bot.Response
	switch {
	case msg.Document != nil:
		resp = t.document(ctx, msg)
	case msg.Text != "":
		resp = t.handler.HandleText(ctx, msg.Text)
	default:
		return
	}
	t.reply(ctx, chatID, resp)
}

func (t *Transport) document(ctx context.Context, msg *tgbotapi.Message) bot.Response {
	if !isImport(msg.Caption) {
		return bot.Response{Text: bot.ImportHint}
	}
	doc := msg.Document
	if doc.FileSize > MaxDocumentSize {
		return bot.Response{Text: "❌ Fayl juda katta."}
	}
	data, err := t.download(ctx, doc.FileID)
	if err != nil {
		t.logger.ErrorContext(ctx, "Failed to download document",
			log.NewFields().WithOperation(log.OpImport).WithError(err).ToSlice()...)
		return bot.Response{Text: "⚠️ Faylni yuklab bo'lmadi. Qayta urinib ko'ring."}
	}
	return t.handler.HandleDocument(ctx, doc.FileName, data)
}

var errTooLarge = errors.New("document too large")

func (t *Transport) download(ctx context.Context, fileID string) ([]byte, error) {
	url, err := t.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("file url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	res, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download: status %d", res.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(res.Body, MaxDocumentSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxDocumentSize {
		return nil, errTooLarge
	}
	return data, nil
}

func (t *Transport) reply(ctx context.Context, chatID int64, r bot.Response) {
	var c tgbotapi.Chattable
	switch {
	case r.File != nil:
		doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: r.File.Name, Bytes: r.File.Data})
		doc.Caption = r.Text
		c = doc
	case r.Image != nil:
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: r.Image.Name, Bytes: r.Image.Data})
		photo.Caption = r.Text
		c = photo
	case r.Text != "":
		c = tgbotapi.NewMessage(chatID, r.Text)
	default:
		return
	}
	if _, err := t.api.Send(c); err != nil {
		t.logger.ErrorContext(ctx, "Failed to send reply",
			log.NewFields().WithOperation(log.OpSend).WithError(err).ToSlice()...)
	}
}

func isImport(caption string) bool {
	f := strings.Fields(strings.ToLower(caption))
	if len(f) == 0 {
		return false
	}
	cmd, _, _ := strings.Cut(f[0], "@")
	return cmd == "/import"
}
