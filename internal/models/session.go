package models

import (
	"time"

	"github.com/dustin/go-humanize"
)

type CheckState string

const (
	CheckStateIdle       CheckState = "idle"
	CheckStateValidating CheckState = "validating"
	CheckStateLoading    CheckState = "loading"
	CheckStateResult     CheckState = "result"
	CheckStateError      CheckState = "error"
)

func (s CheckState) String() string {
	return string(s)
}

// InFlight: проверка начата и ещё не завершилась.
func (s CheckState) InFlight() bool {
	return s == CheckStateValidating || s == CheckStateLoading
}

type SubmissionMode string

const (
	ModeDocuments SubmissionMode = "documents"
	ModeContent   SubmissionMode = "content"
)

func (m SubmissionMode) String() string {
	return string(m)
}

func ParseSubmissionMode(s string) SubmissionMode {
	if SubmissionMode(s) == ModeContent {
		return ModeContent
	}
	return ModeDocuments
}

type NoticeVariant string

const (
	NoticeDefault     NoticeVariant = "default"
	NoticeDestructive NoticeVariant = "destructive"
)

// Notice показывается пользователю один раз.
type Notice struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Variant     NoticeVariant `json:"variant"`
}

func (n Notice) IsDestructive() bool {
	return n.Variant == NoticeDestructive
}

type UploadedFile struct {
	Name     string
	Size     int64
	MimeType string
	Content  []byte
}

func (f *UploadedFile) SizeLabel() string {
	if f == nil {
		return ""
	}
	return humanize.IBytes(uint64(f.Size))
}

// Submission: либо два документа, либо любое сочетание текста, файла и URL.
type Submission struct {
	Mode      SubmissionMode
	Document1 *UploadedFile
	Document2 *UploadedFile
	Text      string
	File      *UploadedFile
	URL       string
}

// FileInfo хранит имя и размер файла, без содержимого.
type FileInfo struct {
	Name      string `json:"name"`
	SizeLabel string `json:"size"`
}

func NewFileInfo(f *UploadedFile) *FileInfo {
	if f == nil {
		return nil
	}
	return &FileInfo{Name: f.Name, SizeLabel: f.SizeLabel()}
}

// Снимок сессии для рендеринга
type SessionView struct {
	ID          string
	State       CheckState
	Mode        SubmissionMode
	FieldErrors map[string]string
	Files       map[string]*FileInfo
	Text        string
	URL         string
	Result      *CheckResult
	CheckID     string
	StartedAt   time.Time
	CompletedAt time.Time
	Notices     []Notice
}

func (v *SessionView) FieldError(name string) string {
	if v == nil || v.FieldErrors == nil {
		return ""
	}
	return v.FieldErrors[name]
}

func (v *SessionView) File(name string) *FileInfo {
	if v == nil || v.Files == nil {
		return nil
	}
	return v.Files[name]
}

// IsLoading: проверка ещё не вернула результат, форма недоступна.
func (v *SessionView) IsLoading() bool {
	return v.State.InFlight()
}

func (v *SessionView) HasResult() bool {
	return v.State == CheckStateResult && v.Result != nil
}

// Session: состояние проверки одного браузера. Доступ только через
// репозиторий сессий, который держит блокировку.
type Session struct {
	ID          string
	State       CheckState
	Mode        SubmissionMode
	FieldErrors map[string]string
	Files       map[string]*FileInfo
	Text        string
	URL         string
	Result      *CheckResult
	// прошедшие проверку файлы по полям формы; пустое поле в следующей
	// отправке берётся отсюда
	Uploads     map[string]*UploadedFile
	LastError   string
	CheckID     string
	StartedAt   time.Time
	CompletedAt time.Time
	Notices     []Notice
	CreatedAt   time.Time
	LastSeenAt  time.Time
}

func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:         id,
		State:      CheckStateIdle,
		Mode:       ModeDocuments,
		CreatedAt:  now,
		LastSeenAt: now,
	}
}

func (s *Session) PushNotice(n Notice) {
	s.Notices = append(s.Notices, n)
}

// Clear возвращает сессию в idle, как кнопка "Check Another Document".
func (s *Session) Clear() {
	s.State = CheckStateIdle
	s.FieldErrors = nil
	s.Files = nil
	s.Uploads = nil
	s.Text = ""
	s.URL = ""
	s.Result = nil
	s.LastError = ""
	s.CheckID = ""
	s.StartedAt = time.Time{}
	s.CompletedAt = time.Time{}
}

// Snapshot копирует сессию; если takeNotices, очередь уведомлений очищается.
func (s *Session) Snapshot(takeNotices bool) SessionView {
	v := SessionView{
		ID:          s.ID,
		State:       s.State,
		Mode:        s.Mode,
		Text:        s.Text,
		URL:         s.URL,
		Result:      s.Result,
		CheckID:     s.CheckID,
		StartedAt:   s.StartedAt,
		CompletedAt: s.CompletedAt,
	}

	if len(s.FieldErrors) > 0 {
		v.FieldErrors = make(map[string]string, len(s.FieldErrors))
		for k, e := range s.FieldErrors {
			v.FieldErrors[k] = e
		}
	}

	if len(s.Files) > 0 {
		v.Files = make(map[string]*FileInfo, len(s.Files))
		for k, f := range s.Files {
			if f != nil {
				fc := *f
				v.Files[k] = &fc
			}
		}
	}

	if takeNotices && len(s.Notices) > 0 {
		v.Notices = s.Notices
		s.Notices = nil
	}

	return v
}
