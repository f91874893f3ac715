package service

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/RubachokBoss/plagiarism-checker/web-client/internal/models"
)

const (
	FieldDocument1 = "document1"
	FieldDocument2 = "document2"
	FieldText      = "text"
	FieldFile      = "file"
	FieldURL       = "url"
)

type ValidationConfig struct {
	MaxFileSize   int64
	AllowedTypes  []string
	MaxTextLength int
}

type Validator struct {
	config     ValidationConfig
	validate   *validator.Validate
	translator ut.Translator
}

type contentInput struct {
	Text string `json:"text" label:"Text" validate:"maxtext"`
	URL  string `json:"url" label:"URL" validate:"omitempty,http_url"`
}

func NewValidator(config ValidationConfig) *Validator {
	enLoc := en.New()
	uni := ut.New(enLoc, enLoc)
	trans, _ := uni.GetTranslator("en")

	v := validator.New(validator.WithRequiredStructEnabled())

	// в сообщениях используем человекочитаемые подписи полей
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if label := fld.Tag.Get("label"); label != "" {
			return label
		}
		return fld.Name
	})

	_ = en_translations.RegisterDefaultTranslations(v, trans)

	maxText := config.MaxTextLength
	_ = v.RegisterValidation("maxtext", func(fl validator.FieldLevel) bool {
		return maxText <= 0 || utf8.RuneCountInString(fl.Field().String()) <= maxText
	})

	registerMessage(v, trans, "maxtext", fmt.Sprintf("{0} must be at most %d characters", maxText))
	registerMessage(v, trans, "http_url", "{0} must be a valid http(s) URL")

	return &Validator{
		config:     config,
		validate:   v,
		translator: trans,
	}
}

func registerMessage(v *validator.Validate, trans ut.Translator, tag, text string) {
	_ = v.RegisterTranslation(tag, trans,
		func(t ut.Translator) error {
			return t.Add(tag, text, true)
		},
		func(t ut.Translator, fe validator.FieldError) string {
			msg, err := t.T(tag, fe.Field())
			if err != nil {
				return fe.Error()
			}
			return msg
		},
	)
}

// ValidateFile проверяет размер, расширение и содержимое файла и
// заполняет MimeType.
func (v *Validator) ValidateFile(file *models.UploadedFile) error {
	if file.Size > v.config.MaxFileSize || int64(len(file.Content)) > v.config.MaxFileSize {
		return &FileError{
			Err:     ErrFileTooLarge,
			Message: fmt.Sprintf("%s exceeds the %s limit", file.Name, humanize.IBytes(uint64(v.config.MaxFileSize))),
		}
	}

	if !v.isAllowedType(file.Name) {
		return &FileError{
			Err:     ErrFileTypeNotAllowed,
			Message: fmt.Sprintf("Only %s files are allowed", strings.Join(v.config.AllowedTypes, ", ")),
		}
	}

	// пустой .txt считаем текстом, сниффер для него ничего не скажет
	if len(file.Content) == 0 {
		file.MimeType = "text/plain"
		return nil
	}

	mtype := mimetype.Detect(file.Content)
	file.MimeType = mtype.String()
	if !isPlainText(mtype) {
		return &FileError{
			Err:     ErrFileNotText,
			Message: fmt.Sprintf("%s does not contain plain text", file.Name),
		}
	}

	return nil
}

// ValidateDocuments требует оба документа.
func (v *Validator) ValidateDocuments(doc1, doc2 *models.UploadedFile) error {
	fields := make(map[string]string)
	missing := false
	var cause error

	docs := []struct {
		field string
		label string
		file  *models.UploadedFile
	}{
		{FieldDocument1, "Document 1", doc1},
		{FieldDocument2, "Document 2", doc2},
	}

	for _, d := range docs {
		if d.file == nil {
			fields[d.field] = "Please upload " + d.label
			missing = true
			continue
		}
		if err := v.ValidateFile(d.file); err != nil {
			fields[d.field] = fileErrorMessage(err)
			if cause == nil {
				cause = err
			}
		}
	}

	if len(fields) == 0 {
		return nil
	}

	if missing {
		return &ValidationError{
			Err:         ErrMissingDocuments,
			Title:       "Missing Files",
			Description: "Please upload both documents before checking.",
			Fields:      fields,
		}
	}

	return &ValidationError{
		Err:         cause,
		Title:       "Invalid File",
		Description: firstMessage(fields, FieldDocument1, FieldDocument2),
		Fields:      fields,
	}
}

// ValidateContent требует хотя бы одно из: текст, файл, URL.
func (v *Validator) ValidateContent(text string, file *models.UploadedFile, url string) error {
	text = strings.TrimSpace(text)
	url = strings.TrimSpace(url)

	if text == "" && file == nil && url == "" {
		return &ValidationError{
			Err:         ErrEmptyContent,
			Title:       "Missing Content",
			Description: "Please enter text, upload a file or provide a URL before checking.",
			Fields: map[string]string{
				FieldText: "Enter text, upload a file or provide a URL",
			},
		}
	}

	fields := make(map[string]string)
	var cause error

	if file != nil {
		if err := v.ValidateFile(file); err != nil {
			fields[FieldFile] = fileErrorMessage(err)
			cause = err
		}
	}

	if err := v.validate.Struct(contentInput{Text: text, URL: url}); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				fields[strings.ToLower(fe.StructField())] = fe.Translate(v.translator)
			}
		}
		if cause == nil {
			cause = ErrInvalidInput
		}
	}

	if len(fields) == 0 {
		return nil
	}

	return &ValidationError{
		Err:         cause,
		Title:       "Invalid Input",
		Description: firstMessage(fields, FieldText, FieldFile, FieldURL),
		Fields:      fields,
	}
}

func (v *Validator) isAllowedType(fileName string) bool {
	if len(v.config.AllowedTypes) == 0 {
		return true
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	for _, allowed := range v.config.AllowedTypes {
		if ext == strings.ToLower(allowed) {
			return true
		}
	}

	return false
}

// isPlainText принимает text/plain и все его потомки (csv, html, json...).
func isPlainText(mtype *mimetype.MIME) bool {
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

func fileErrorMessage(err error) string {
	if fe, ok := err.(*FileError); ok {
		return fe.Message
	}
	return err.Error()
}

func firstMessage(fields map[string]string, order ...string) string {
	for _, name := range order {
		if msg, ok := fields[name]; ok {
			return msg
		}
	}
	return "Please check the highlighted fields."
}
