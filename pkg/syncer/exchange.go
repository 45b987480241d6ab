package syncer

import (
	"log/slog"

	"github.com/astromechza/scriptsync/pkg/document"
)

// Exchange passes sync messages between two in-process replicas until neither has anything left
// to send. It returns the number of messages delivered.
func Exchange(a, b *document.SyncState, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	sent := 0
	hadMessages := true
	for hadMessages {
		hadMessages = false
		for _, dir := range []struct {
			name     string
			from, to *document.SyncState
		}{{"a to b", a, b}, {"b to a", b, a}} {
			for {
				msg, ok := dir.from.GenerateMessage()
				if !ok {
					break
				}
				logger.Debug("exchange", "direction", dir.name, "bytes", len(msg))
				hadMessages = true
				sent++
				if err := dir.to.ReceiveMessage(msg); err != nil {
					return sent, err
				}
			}
		}
	}
	return sent, nil
}
