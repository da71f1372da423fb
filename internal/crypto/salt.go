package crypto

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// SaltSize размер соли в байтах
const SaltSize = 16

// GenerateSalt генерирует криптографически случайную соль
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// voucherAlphabet без похожих символов (0/O, 1/I)
const voucherAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateVoucherCode генерирует код ваучера вида XXXX-XXXX-XXXX
func GenerateVoucherCode() (string, error) {
	const groups, groupLen = 3, 4

	buf := make([]byte, groups*groupLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate voucher code: %w", err)
	}

	var b strings.Builder
	for i, v := range buf {
		if i > 0 && i%groupLen == 0 {
			b.WriteByte('-')
		}
		// 256 делится на 32 без остатка, распределение равномерное
		b.WriteByte(voucherAlphabet[int(v)%len(voucherAlphabet)])
	}
	return b.String(), nil
}
