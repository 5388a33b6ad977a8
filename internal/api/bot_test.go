package telegram

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	app "body-scan/internal/application"
	"body-scan/internal/domain/entity"
	"body-scan/internal/infrastructure/storage"
)

type fakeAPI struct {
	mu      sync.Mutex
	sent    []tgbotapi.MessageConfig
	albums  []tgbotapi.MediaGroupConfig
	updates chan tgbotapi.Update
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{updates: make(chan tgbotapi.Update, 4)}
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, m)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) SendMediaGroup(c tgbotapi.MediaGroupConfig) ([]tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.albums = append(f.albums, c)
	return nil, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {}

func (f *fakeAPI) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, m := range f.sent {
		out = append(out, m.Text)
	}
	return out
}

type fakeScanner struct {
	status    app.ScanStatus
	record    *entity.CaptureRecord
	err       error
	switchErr error
	switched  []string
}

func (s *fakeScanner) Status() app.ScanStatus { return s.status }

func (s *fakeScanner) RequestCapture(context.Context) (*entity.CaptureRecord, error) {
	return s.record, s.err
}

func (s *fakeScanner) SwitchDevice(_ context.Context, id string) error {
	if s.switchErr != nil {
		return s.switchErr
	}
	s.switched = append(s.switched, id)
	return nil
}

type fakeDevices []entity.DeviceDescriptor

func (d fakeDevices) ListCameras(context.Context) ([]entity.DeviceDescriptor, error) {
	if len(d) == 0 {
		return nil, &entity.NoDeviceError{}
	}
	return d, nil
}

func command(chatID int64, text string) *tgbotapi.Message {
	length := len(text)
	for i, r := range text {
		if r == ' ' {
			length = i
			break
		}
	}
	return &tgbotapi.Message{
		Text:     text,
		From:     &tgbotapi.User{ID: chatID},
		Chat:     &tgbotapi.Chat{ID: chatID},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: length}},
	}
}

func text(chatID int64, body string) *tgbotapi.Message {
	return &tgbotapi.Message{
		Text: body,
		From: &tgbotapi.User{ID: chatID},
		Chat: &tgbotapi.Chat{ID: chatID},
	}
}

func newTestBot(t *testing.T, allowed ...int64) (*Bot, *fakeAPI) {
	t.Helper()
	api := newFakeAPI()
	ops := app.NewOperatorService(storage.NewMemoryOperatorRepository(), allowed...)
	devices := fakeDevices{{ID: "video0", Label: "Integrated Webcam"}, {ID: "video2", Label: "Rear Camera"}}
	return newBot(api, ops, devices, zerolog.Nop()), api
}

func TestBot_StatusReportsPhaseAndProgress(t *testing.T) {
	bot, api := newTestBot(t)
	bot.Attach(&fakeScanner{status: app.ScanStatus{
		MachineSnapshot: app.MachineSnapshot{
			Phase:       entity.PhaseFrontUpper,
			Progress:    42,
			Instruction: entity.Instruction{Type: entity.InstructionWarning, Message: "Отойдите назад"},
		},
		Device: entity.DeviceDescriptor{ID: "video2", Label: "Rear Camera"},
	}})

	bot.handleMessage(context.Background(), command(1, "/status"))

	texts := api.texts()
	require.Len(t, texts, 1)
	require.Contains(t, texts[0], entity.PhaseFrontUpper.Label())
	require.Contains(t, texts[0], "42%")
	require.Contains(t, texts[0], "Отойдите назад")
	require.Contains(t, texts[0], "video2")
}

func TestBot_CaptureMapsErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"complete", entity.ErrScanComplete, msgScanComplete},
		{"no frame", entity.ErrNoFrame, msgNoFrame},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bot, api := newTestBot(t)
			bot.Attach(&fakeScanner{err: tc.err})
			bot.handleMessage(context.Background(), command(1, "/capture"))
			require.Equal(t, []string{tc.want}, api.texts())
		})
	}
}

func TestBot_CaptureSuccess(t *testing.T) {
	bot, api := newTestBot(t)
	bot.Attach(&fakeScanner{record: &entity.CaptureRecord{Phase: entity.PhaseSideLower, Manual: true}})

	bot.handleMessage(context.Background(), command(1, "/capture"))

	texts := api.texts()
	require.Len(t, texts, 1)
	require.Contains(t, texts[0], entity.PhaseSideLower.Label())
}

func TestBot_SwitchAwaitsDeviceID(t *testing.T) {
	bot, api := newTestBot(t)
	scanner := &fakeScanner{}
	bot.Attach(scanner)
	ctx := context.Background()

	bot.handleMessage(ctx, command(5, "/switch"))
	require.Equal(t, []string{msgAwaitingDevice}, api.texts())

	bot.handleMessage(ctx, text(5, " video2 "))
	require.Equal(t, []string{"video2"}, scanner.switched)

	op, err := bot.operators.Get(ctx, 5, 5)
	require.NoError(t, err)
	require.Equal(t, entity.StateScanning, op.State)

	bot.handleMessage(ctx, command(5, "/switch video0"))
	require.Equal(t, []string{"video2", "video0"}, scanner.switched)
}

func TestBot_SwitchToUnknownDevice(t *testing.T) {
	bot, api := newTestBot(t)
	bot.Attach(&fakeScanner{switchErr: &entity.NoDeviceError{Cause: errors.New(`device "typo" not found`)}})
	ctx := context.Background()

	bot.handleMessage(ctx, command(5, "/switch typo"))

	texts := api.texts()
	require.Len(t, texts, 1)
	require.Contains(t, texts[0], "typo")
	require.Contains(t, texts[0], "/devices")

	op, err := bot.operators.Get(ctx, 5, 5)
	require.NoError(t, err)
	require.Equal(t, entity.StateScanning, op.State)
}

func TestBot_AttachWhileRunning(t *testing.T) {
	bot, api := newTestBot(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- bot.Run(ctx) }()

	api.updates <- tgbotapi.Update{Message: command(3, "/status")}
	bot.Attach(&fakeScanner{status: app.ScanStatus{
		MachineSnapshot: app.MachineSnapshot{Phase: entity.PhaseSideUpper},
	}})
	require.Eventually(t, func() bool { return len(api.texts()) == 1 }, time.Second, time.Millisecond)

	api.updates <- tgbotapi.Update{Message: command(3, "/status")}
	require.Eventually(t, func() bool { return len(api.texts()) == 2 }, time.Second, time.Millisecond)
	require.Contains(t, api.texts()[1], entity.PhaseSideUpper.Label())

	cancel()
	require.NoError(t, <-done)
}

func TestBot_DevicesListsCameras(t *testing.T) {
	bot, api := newTestBot(t)
	bot.handleMessage(context.Background(), command(1, "/devices"))

	texts := api.texts()
	require.Len(t, texts, 1)
	require.Contains(t, texts[0], "video0")
	require.Contains(t, texts[0], "Rear Camera (задняя)")
}

func TestBot_RejectsUnauthorizedChat(t *testing.T) {
	bot, api := newTestBot(t, 100)
	scanner := &fakeScanner{}
	bot.Attach(scanner)

	bot.handleMessage(context.Background(), command(7, "/switch video0"))

	require.Equal(t, []string{msgNotAuthorized}, api.texts())
	require.Empty(t, scanner.switched)
}

func TestBot_HandleSessionSendsAlbum(t *testing.T) {
	bot, api := newTestBot(t)
	ctx := context.Background()
	bot.handleMessage(ctx, command(9, "/start"))

	start := time.Now()
	session := entity.NewScanSession("s1", start)
	for i, phase := range entity.CapturePhases() {
		rec := entity.NewCaptureRecord(phase, nil, []byte{byte(i)}, 10, 10, phase == entity.PhaseFaceNeck, start)
		require.NoError(t, session.Add(rec))
	}
	require.NoError(t, session.Seal(start))

	require.NoError(t, bot.HandleSession(ctx, session))

	require.Len(t, api.albums, 1)
	album := api.albums[0]
	require.Equal(t, int64(9), album.ChatID)
	require.Len(t, album.Media, len(entity.CapturePhases()))

	first, ok := album.Media[0].(tgbotapi.InputMediaPhoto)
	require.True(t, ok)
	require.Equal(t, entity.PhaseFaceNeck.Label()+" (вручную)", first.Caption)

	last, ok := album.Media[len(album.Media)-1].(tgbotapi.InputMediaPhoto)
	require.True(t, ok)
	require.Equal(t, entity.TerminalCapturePhase().Label(), last.Caption)
}

func TestBot_NotifyQueuesOnlyCaptures(t *testing.T) {
	bot, _ := newTestBot(t)

	bot.Notify(entity.Feedback{Phase: entity.PhaseFaceNeck})
	require.Len(t, bot.notify, 0)

	bot.Notify(entity.Feedback{Phase: entity.PhaseFaceNeck, Captured: &entity.CaptureRecord{Phase: entity.PhaseFaceNeck}})
	require.Len(t, bot.notify, 1)
}

func TestBot_RunStopsOnCancel(t *testing.T) {
	bot, api := newTestBot(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- bot.Run(ctx) }()

	api.updates <- tgbotapi.Update{Message: command(3, "/help")}
	require.Eventually(t, func() bool { return len(api.texts()) == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("bot did not stop")
	}
}
