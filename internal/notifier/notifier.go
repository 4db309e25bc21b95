// internal/notifier/notifier.go
package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	custom_errors "github-trending-notifier/internal/errors"
	"github-trending-notifier/internal/model"
)

// DefaultDigestSize is the number of repositories listed in a digest.
const DefaultDigestSize = 5

// Messenger delivers a text message to a destination.
type Messenger interface {
	SendMessage(ctx context.Context, destination, text string) error
}

// Notifier formats digests and hands them to a Messenger. Delivery failures
// are logged and never returned.
type Notifier struct {
	messenger   Messenger
	destination string
	size        int
	logger      *slog.Logger
}

// NewNotifier creates a new Notifier instance. A non-positive size uses DefaultDigestSize.
func NewNotifier(messenger Messenger, destination string, size int, logger *slog.Logger) *Notifier {
	if size <= 0 {
		size = DefaultDigestSize
	}
	return &Notifier{
		messenger:   messenger,
		destination: destination,
		size:        size,
		logger:      logger,
	}
}

// Notify sends the digest for records to the configured destination.
func (n *Notifier) Notify(ctx context.Context, period model.Period, language string, records []model.Repository) {
	text := FormatDigest(period, language, records, n.size)
	if err := n.messenger.SendMessage(ctx, n.destination, text); err != nil {
		deliveryErr := &custom_errors.NotifyDeliveryError{Destination: n.destination, Err: err}
		n.logger.Error("Failed to deliver digest", "period", period, "language", model.LanguageLabel(language), "error", deliveryErr)
		return
	}
	n.logger.Info("Digest delivered", "period", period, "language", model.LanguageLabel(language), "count", min(len(records), n.size))
}

// FormatDigest renders the header and the top size records, one per line, or a
// single "no results" line when records is empty.
func FormatDigest(period model.Period, language string, records []model.Repository, size int) string {
	label := model.LanguageLabel(language)
	if len(records) == 0 {
		return NoResultsMessage(period, language)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s GitHub Trending for %s:", period.Title(), label)
	for _, r := range records[:min(len(records), size)] {
		fmt.Fprintf(&b, "\n%s - %s (Stars: %d)", r.Author, r.URL, r.Stars)
	}
	return b.String()
}

// NoResultsMessage is the digest used when a fetch produced nothing.
func NoResultsMessage(period model.Period, language string) string {
	return fmt.Sprintf("No %s trending repositories found for %s.", period, model.LanguageLabel(language))
}

// ProgressMessage is sent by the command frontend before a fetch starts.
func ProgressMessage(period model.Period, language string) string {
	return fmt.Sprintf("Fetching %s GitHub trending repositories for %s...", period, model.LanguageLabel(language))
}

// LogMessenger writes messages to the log instead of a chat. Used when no
// messaging credentials are configured.
type LogMessenger struct {
	logger *slog.Logger
}

func NewLogMessenger(logger *slog.Logger) *LogMessenger {
	return &LogMessenger{logger: logger}
}

func (m *LogMessenger) SendMessage(_ context.Context, destination, text string) error {
	m.logger.Info("Message", "destination", destination, "text", text)
	return nil
}
