package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	app "body-scan/internal/application"
	"body-scan/internal/domain/entity"
	"body-scan/internal/domain/port"
)

const (
	msgStart = `👋 Привет! Я пульт сканера тела.

📸 Сканер проводит человека через семь этапов съёмки и сам делает снимок, когда поза выдержана.

📋 Команды:
/status — текущий этап и подсказка
/capture — снять текущий этап вручную
/devices — список камер
/switch — переключить камеру
/help — справка
/cancel — отписаться от уведомлений`

	msgHelp = `ℹ️ Как проходит сканирование:

1️⃣ Лицо и шея
2️⃣ Верх и низ спереди
3️⃣ Верх и низ сбоку
4️⃣ Верх и низ со спины

💡 Рекомендации:
• Хорошее освещение, однотонный фон
• Человек целиком в кадре
• Если этап не снимается сам, отправьте /capture

📋 Команды:
/status /capture /devices /switch /cancel`

	msgCancelled      = "❌ Уведомления отключены. Отправьте /start, чтобы снова получать их."
	msgUnknownCommand = "❓ Неизвестная команда. Используйте /help для справки."
	msgNotAuthorized  = "⛔ Этот чат не может управлять сканером."
	msgScanComplete   = "🏁 Сканирование уже завершено."
	msgNoFrame        = "⏳ Камера ещё не отдала ни одного кадра, попробуйте позже."
	msgCaptureFailed  = "⚠️ Не удалось сделать снимок."
	msgAwaitingDevice = "🎥 Отправьте ID камеры из списка /devices."
	msgSwitchFailed   = "⚠️ Не удалось переключить камеру."
	msgUnknownDevice  = "🚫 Камера %s не найдена, съёмка продолжается на текущей. Список: /devices"
	msgNotStarted     = "⏳ Сканер ещё не запущен."
	msgNoDevices      = "🚫 Камеры не найдены или к ним нет доступа."
	msgSendCommand    = "ℹ️ Используйте /status или /capture."
	msgSessionSealed  = "🏁 Сканирование завершено, снято этапов: %d из %d."
)

// Scanner операции сканера, доступные оператору
type Scanner interface {
	Status() app.ScanStatus
	RequestCapture(ctx context.Context) (*entity.CaptureRecord, error)
	SwitchDevice(ctx context.Context, id string) error
}

// DeviceLister список камер для /devices
type DeviceLister interface {
	ListCameras(ctx context.Context) ([]entity.DeviceDescriptor, error)
}

// botAPI часть tgbotapi.BotAPI, которой пользуется бот
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	SendMediaGroup(config tgbotapi.MediaGroupConfig) ([]tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot представляет Telegram-бота оператора
type Bot struct {
	api       botAPI
	operators *app.OperatorService
	devices   DeviceLister
	logger    zerolog.Logger
	notify    chan entity.Feedback

	mu      sync.RWMutex
	scanner Scanner
}

// NewBot создаёт нового бота
func NewBot(token string, operators *app.OperatorService, devices DeviceLister, logger zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}

	b := newBot(api, operators, devices, logger)
	b.logger.Info().Str("account", api.Self.UserName).Msg("telegram bot authorized")
	return b, nil
}

func newBot(api botAPI, operators *app.OperatorService, devices DeviceLister, logger zerolog.Logger) *Bot {
	return &Bot{
		api:       api,
		operators: operators,
		devices:   devices,
		logger:    logger.With().Str("component", "telegram").Logger(),
		notify:    make(chan entity.Feedback, 8),
	}
}

// Attach подключает сканер текущего запуска. Можно вызывать при работающем Run.
func (b *Bot) Attach(scanner Scanner) {
	b.mu.Lock()
	b.scanner = scanner
	b.mu.Unlock()
}

func (b *Bot) currentScanner() Scanner {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.scanner
}

// Run запускает основной цикл обработки сообщений до отмены контекста
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil

		case fb := <-b.notify:
			b.announceCapture(ctx, fb)

		case update, ok := <-updates:
			if !ok {
				return errors.New("telegram updates channel closed")
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// Notify принимает подсказки цикла кадров. Не блокирует: снятые этапы уходят в очередь,
// остальные кадры отбрасываются.
func (b *Bot) Notify(fb entity.Feedback) {
	if fb.Captured == nil {
		return
	}
	select {
	case b.notify <- fb:
	default:
		b.logger.Warn().Str("phase", string(fb.Phase)).Msg("capture notification dropped")
	}
}

// HandleSession отправляет альбом снимков запечатанной сессии
func (b *Bot) HandleSession(ctx context.Context, session *entity.ScanSession) error {
	chats, err := b.operators.Recipients(ctx)
	if err != nil {
		return fmt.Errorf("resolve recipients: %w", err)
	}
	if len(chats) == 0 {
		b.logger.Warn().Str("session_id", session.ID).Msg("no telegram recipients for sealed session")
		return nil
	}

	var errs []error
	for _, chatID := range chats {
		b.sendMessage(chatID, fmt.Sprintf(msgSessionSealed, session.Len(), len(entity.CapturePhases())))
		if _, err := b.api.SendMediaGroup(buildAlbum(chatID, session)); err != nil {
			errs = append(errs, fmt.Errorf("send album to %d: %w", chatID, err))
		}
	}
	return errors.Join(errs...)
}

// buildAlbum альбом из снимков в порядке этапов, подпись у каждого снимка
func buildAlbum(chatID int64, session *entity.ScanSession) tgbotapi.MediaGroupConfig {
	records := session.Records()
	files := make([]interface{}, 0, len(records))
	for i, rec := range records {
		photo := tgbotapi.NewInputMediaPhoto(tgbotapi.FileBytes{
			Name:  fmt.Sprintf("%02d_%s.jpg", i+1, rec.Phase),
			Bytes: rec.Image,
		})
		photo.Caption = captionFor(rec)
		files = append(files, photo)
	}
	return tgbotapi.NewMediaGroup(chatID, files)
}

func captionFor(rec *entity.CaptureRecord) string {
	if rec.Manual {
		return rec.Phase.Label() + " (вручную)"
	}
	return rec.Phase.Label()
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}

	op, err := b.operators.Get(ctx, msg.From.ID, msg.Chat.ID)
	if errors.Is(err, app.ErrNotAuthorized) {
		b.logger.Warn().Int64("chat_id", msg.Chat.ID).Msg("unauthorized chat")
		b.sendMessage(msg.Chat.ID, msgNotAuthorized)
		return
	}
	if err != nil {
		b.logger.Error().Err(err).Msg("failed to load operator")
		return
	}

	// Обработка команд
	if msg.IsCommand() {
		b.handleCommand(ctx, msg, op)
		return
	}

	if op.State == entity.StateAwaitingDevice {
		b.switchDevice(ctx, msg, strings.TrimSpace(msg.Text))
		return
	}

	b.sendMessage(msg.Chat.ID, msgSendCommand)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, op *entity.Operator) {
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start":
		b.setState(ctx, msg, b.operators.Subscribe)
		b.sendMessage(chatID, msgStart)

	case "help":
		b.sendMessage(chatID, msgHelp)

	case "status":
		b.sendMessage(chatID, b.statusText())

	case "capture":
		b.capture(ctx, chatID)

	case "devices":
		b.sendMessage(chatID, b.devicesText(ctx))

	case "switch":
		if id := strings.TrimSpace(msg.CommandArguments()); id != "" {
			b.switchDevice(ctx, msg, id)
			return
		}
		b.setState(ctx, msg, b.operators.AwaitDevice)
		b.sendMessage(chatID, msgAwaitingDevice)

	case "cancel":
		b.setState(ctx, msg, b.operators.Cancel)
		b.sendMessage(chatID, msgCancelled)

	default:
		b.sendMessage(chatID, msgUnknownCommand)
	}
}

func (b *Bot) capture(ctx context.Context, chatID int64) {
	scanner := b.currentScanner()
	if scanner == nil {
		b.sendMessage(chatID, msgNoFrame)
		return
	}

	rec, err := scanner.RequestCapture(ctx)
	switch {
	case errors.Is(err, entity.ErrScanComplete):
		b.sendMessage(chatID, msgScanComplete)
	case errors.Is(err, entity.ErrNoFrame):
		b.sendMessage(chatID, msgNoFrame)
	case err != nil:
		b.logger.Error().Err(err).Msg("manual capture failed")
		b.sendMessage(chatID, msgCaptureFailed)
	default:
		b.sendMessage(chatID, fmt.Sprintf("📸 Снято вручную: %s", rec.Phase.Label()))
	}
}

func (b *Bot) switchDevice(ctx context.Context, msg *tgbotapi.Message, id string) {
	defer b.setState(ctx, msg, b.operators.Subscribe)

	scanner := b.currentScanner()
	if scanner == nil || id == "" {
		b.sendMessage(msg.Chat.ID, msgSwitchFailed)
		return
	}
	err := scanner.SwitchDevice(ctx, id)
	switch {
	case errors.Is(err, entity.ErrNoDevice):
		b.logger.Warn().Err(err).Str("device", id).Msg("unknown device requested")
		b.sendMessage(msg.Chat.ID, fmt.Sprintf(msgUnknownDevice, id))
		return
	case errors.Is(err, entity.ErrScanComplete):
		b.sendMessage(msg.Chat.ID, msgScanComplete)
		return
	case err != nil:
		b.logger.Warn().Err(err).Str("device", id).Msg("device switch rejected")
		b.sendMessage(msg.Chat.ID, msgSwitchFailed)
		return
	}
	b.sendMessage(msg.Chat.ID, fmt.Sprintf("🎥 Переключаюсь на камеру %s", id))
}

func (b *Bot) setState(ctx context.Context, msg *tgbotapi.Message, fn func(context.Context, int64, int64) (*entity.Operator, error)) {
	if _, err := fn(ctx, msg.From.ID, msg.Chat.ID); err != nil {
		b.logger.Error().Err(err).Msg("failed to save operator state")
	}
}

func (b *Bot) statusText() string {
	scanner := b.currentScanner()
	if scanner == nil {
		return msgNotStarted
	}
	st := scanner.Status()
	if st.Complete {
		return fmt.Sprintf("🏁 Сканирование завершено, снято этапов: %d", st.Captured)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📍 Этап: %s (%d/%d)\n", st.Phase.Label(), st.Phase.Index()+1, len(entity.CapturePhases()))
	fmt.Fprintf(&sb, "📈 Уверенность: %.0f%%\n", st.Progress)
	if st.Instruction.Message != "" {
		fmt.Fprintf(&sb, "💬 %s\n", st.Instruction.Message)
	}
	if st.Device.ID != "" {
		fmt.Fprintf(&sb, "🎥 Камера: %s (%s)\n", st.Device.Label, st.Device.ID)
	}
	fmt.Fprintf(&sb, "⚡ %.1f кадр/с", st.Stats.FPS)
	return sb.String()
}

func (b *Bot) devicesText(ctx context.Context) string {
	if b.devices == nil {
		return msgNoDevices
	}
	devices, err := b.devices.ListCameras(ctx)
	if err != nil {
		b.logger.Warn().Err(err).Msg("failed to list cameras")
		return msgNoDevices
	}

	var sb strings.Builder
	sb.WriteString("🎥 Камеры:\n")
	for _, d := range devices {
		fmt.Fprintf(&sb, "• %s — %s", d.ID, d.Label)
		if d.IsRear() {
			sb.WriteString(" (задняя)")
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (b *Bot) announceCapture(ctx context.Context, fb entity.Feedback) {
	chats, err := b.operators.Recipients(ctx)
	if err != nil {
		b.logger.Error().Err(err).Msg("failed to resolve recipients")
		return
	}
	text := fmt.Sprintf("✅ Снят этап: %s", fb.Captured.Phase.Label())
	for _, chatID := range chats {
		b.sendMessage(chatID, text)
	}
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("failed to send message")
	}
}

var _ port.SessionHandler = (*Bot)(nil)
