// Package clipboard implements the Clipboard Bridge: echo-suppressed
// synchronization between the local Pasteboard Provider and remote VNC
// clients.
//
// Uses a skip-next-notification flag plus a content fingerprint to avoid
// echoing a remote paste back to the client that sent it, realized over
// internal/pasteboard.Provider and internal/lifecycle.SerialQueue so all
// state transitions are serialized through one goroutine.
package clipboard

import (
	"crypto/sha256"

	"github.com/trollvnc/trollvncd/internal/lifecycle"
	"github.com/trollvnc/trollvncd/internal/pasteboard"
)

// OnChange is invoked with the new clipboard text on the UI-affine thread.
// text is empty and ok is false for non-text pasteboard contents.
type OnChange func(text string, ok bool)

// Bridge mediates between a pasteboard.Provider and remote clients.
type Bridge struct {
	provider pasteboard.Provider
	queue    *lifecycle.SerialQueue
	onChange OnChange

	active          bool
	unsubscribe     func()
	skipNextNotif   bool
	lastFingerprint [32]byte
	hasFingerprint  bool
}

// New constructs a Bridge over provider. onChange is invoked for every
// externally observed change that survives echo suppression and
// deduplication.
func New(provider pasteboard.Provider, onChange OnChange) *Bridge {
	return &Bridge{
		provider: provider,
		queue:    lifecycle.NewSerialQueue(),
		onChange: onChange,
	}
}

// Start subscribes to pasteboard change notifications. Idempotent.
func (b *Bridge) Start() {
	b.queue.Sync(func() {
		if b.active {
			return
		}
		b.active = true
		b.unsubscribe = b.provider.Subscribe(b.handleNotification)
	})
}

// Stop unsubscribes from change notifications. Idempotent.
func (b *Bridge) Stop() {
	b.queue.Sync(func() {
		if !b.active {
			return
		}
		b.active = false
		if b.unsubscribe != nil {
			b.unsubscribe()
			b.unsubscribe = nil
		}
	})
}

// SetFromRemote writes text to the pasteboard on behalf of a remote client,
// : set skip-next-notification, write, and do not invoke onChange
// for this write.
func (b *Bridge) SetFromRemote(text string) {
	b.queue.Sync(func() {
		b.skipNextNotif = true
		b.provider.WriteUTF8(text)
		b.lastFingerprint = fingerprint(text)
		b.hasFingerprint = true
	})
}

func fingerprint(text string) [32]byte {
	return sha256.Sum256([]byte(text))
}

// handleNotification runs on whatever goroutine the Provider delivers
// notifications on; it re-dispatches onto the bridge's serial queue so all
// echo-suppression state is touched from one goroutine.
func (b *Bridge) handleNotification(text string, isText bool) {
	b.queue.Async(func() {
		if !isText {
			if b.skipNextNotif {
				b.skipNextNotif = false
				return
			}
			if b.onChange != nil {
				b.onChange("", false)
			}
			return
		}

		if b.skipNextNotif {
			b.skipNextNotif = false
			return
		}

		fp := fingerprint(text)
		if b.hasFingerprint && fp == b.lastFingerprint {
			return
		}
		b.lastFingerprint = fp
		b.hasFingerprint = true
		if b.onChange != nil {
			b.onChange(text, true)
		}
	})
}
