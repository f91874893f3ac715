package service

import (
	"errors"
	"fmt"
)

// Ошибки, которые delivery-слой маппит на коды и уведомления.
var (
	// Валидация ввода.
	ErrMissingDocuments   = errors.New("both documents are required")
	ErrEmptyContent       = errors.New("text, file or url is required")
	ErrInvalidInput       = errors.New("invalid input")
	ErrFileTooLarge       = errors.New("file size exceeds limit")
	ErrFileTypeNotAllowed = errors.New("file type not allowed")
	ErrFileNotText        = errors.New("file is not plain text")

	// Состояние сессии.
	ErrCheckInProgress = errors.New("check already in progress")
	ErrNoResult        = errors.New("no result available")

	ErrUnsupportedFormat = errors.New("unsupported export format")
)

// ValidationError несёт ошибки по полям формы и текст уведомления.
type ValidationError struct {
	Err         error
	Title       string
	Description string
	Fields      map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %d field(s) rejected", e.Err.Error(), len(e.Fields))
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// FileError несёт сообщение для пользователя по конкретному файлу.
type FileError struct {
	Err     error
	Message string
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *FileError) Unwrap() error {
	return e.Err
}
