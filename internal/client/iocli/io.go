package iocli

import "io"

//go:generate moq -out io_mock.go . IO

// IO ввод-вывод командного клиента
type IO interface {
	io.Writer
	Println(a ...any)
	Printf(format string, a ...any)
	ReadInput(prompt string) (string, error)
	ReadPassword(prompt string) (string, error)
}
