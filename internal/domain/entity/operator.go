package entity

// OperatorState состояние диалога оператора
type OperatorState string

const (
	StateIdle           OperatorState = "idle"            // Ожидание команды
	StateScanning       OperatorState = "scanning"        // Подписан на ход сканирования
	StateAwaitingDevice OperatorState = "awaiting_device" // Ожидание ID камеры для переключения
)

// Operator оператор сканера в Telegram
type Operator struct {
	ID     int64         // Telegram User ID
	ChatID int64         // Telegram Chat ID
	State  OperatorState // Текущее состояние диалога
}

// NewOperator создаёт оператора в начальном состоянии
func NewOperator(userID, chatID int64) *Operator {
	return &Operator{
		ID:     userID,
		ChatID: chatID,
		State:  StateIdle,
	}
}

// SetState обновляет состояние оператора
func (o *Operator) SetState(state OperatorState) {
	o.State = state
}

// Subscribed получает ли оператор уведомления о снятых этапах
func (o *Operator) Subscribed() bool {
	return o.State != StateIdle
}
