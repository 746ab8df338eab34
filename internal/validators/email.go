package validators

import (
	"net/mail"
	"strings"
)

// IsEmail aceita apenas um endereço simples (sem nome de exibição).
func IsEmail(email string) bool {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}

	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	return addr.Address == email && strings.Contains(email[at+1:], ".")
}
