package models

import "time"

// Voucher одноразовый код, начисляющий кредиты и, опционально, тарифный пакет
type Voucher struct {
	CreatedAt  time.Time  `json:"createdAt"`
	RedeemedAt *time.Time `json:"redeemedAt"`
	RedeemedBy *string    `json:"redeemedBy"`
	ID         string     `json:"id"`
	Code       string     `json:"code"`
	Package    string     `json:"package,omitempty"`
	Credits    float64    `json:"credits"`
}

// Redeemed сообщает, использован ли ваучер
func (v *Voucher) Redeemed() bool {
	return v.RedeemedAt != nil
}
