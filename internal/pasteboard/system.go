package pasteboard

import (
	"context"
	"sync"

	"golang.design/x/clipboard"
)

// System is a Provider backed by the real OS clipboard via
// golang.design/x/clipboard, the same dependency and FmtText usage as the
// teacher's handleClipboardPaste.
type System struct {
	initOnce sync.Once
	initErr  error
}

func (s *System) ensureInit() error {
	s.initOnce.Do(func() {
		s.initErr = clipboard.Init()
	})
	return s.initErr
}

// ReadUTF8 returns the current clipboard text, or ("", false) if the
// clipboard is empty or unavailable.
func (s *System) ReadUTF8() (string, bool) {
	if err := s.ensureInit(); err != nil {
		return "", false
	}
	data := clipboard.Read(clipboard.FmtText)
	if len(data) == 0 {
		return "", false
	}
	return string(data), true
}

// WriteUTF8 writes text to the clipboard.
func (s *System) WriteUTF8(text string) {
	if err := s.ensureInit(); err != nil {
		return
	}
	clipboard.Write(clipboard.FmtText, []byte(text))
}

// Subscribe starts a goroutine watching clipboard.Watch(ctx, FmtText) and
// invokes onChange for every external change, until the returned
// unsubscribe func is called.
func (s *System) Subscribe(onChange func(text string, isText bool)) func() {
	if err := s.ensureInit(); err != nil {
		return func() {}
	}
	ctx, cancel := context.WithCancel(context.Background())
	ch := clipboard.Watch(ctx, clipboard.FmtText)
	go func() {
		for data := range ch {
			onChange(string(data), true)
		}
	}()
	return cancel
}
