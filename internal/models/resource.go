package models

import (
	"encoding/json"
	"time"

	"github.com/iudanet/tradedesk/pkg/api"
)

// Resource запись пользовательской коллекции (счет, бот, сигнал, сделка, транзакция).
// Поля записи хранятся как JSON-объект: структура коллекций определяется торговым бэкендом.
type Resource struct {
	CreatedAt time.Time       `json:"created_at"`
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Kind      api.Resource    `json:"kind"`
	Data      json.RawMessage `json:"data"`
}

// Fields возвращает поля записи вместе с id и createdAt
func (r *Resource) Fields() (map[string]any, error) {
	fields := make(map[string]any)
	if len(r.Data) > 0 {
		if err := json.Unmarshal(r.Data, &fields); err != nil {
			return nil, err
		}
	}
	fields["id"] = r.ID
	fields["createdAt"] = r.CreatedAt.UTC().Format(time.RFC3339)
	return fields, nil
}
