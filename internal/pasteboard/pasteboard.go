// Package pasteboard implements the Pasteboard Provider collaborator:
// reading/writing the system clipboard and subscribing to external change
// notifications.
//
// Grounded on IntuitionEngine's video_backend_ebiten.go handleClipboardPaste,
// which lazily clipboard.Init()s once and calls clipboard.Read(FmtText);
// generalized here to also Write and to Watch for external changes via the
// same golang.design/x/clipboard dependency.
package pasteboard

// Provider is the pasteboard read/write/subscribe contract.
type Provider interface {
	ReadUTF8() (string, bool)
	WriteUTF8(text string)
	Subscribe(onChange func(text string, isText bool)) (unsubscribe func())
}
