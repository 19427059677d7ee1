package notify

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"slices"
	"strings"
	"time"

	shoutrrr "github.com/nicholas-fedor/shoutrrr"
	router "github.com/nicholas-fedor/shoutrrr/pkg/router"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"

	"github.com/john-samurai/birdtag-go/internal/errors"
	"github.com/john-samurai/birdtag-go/internal/logging"
)

// Notifier delivers one notification event, best effort. Implementations
// must be safe for concurrent use.
type Notifier interface {
	Send(ctx context.Context, event Event) error
}

// LogNotifier writes notification events to the structured log. It is the
// default sink when no external delivery backend is configured.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{logger: logging.ForService("notify")}
}

func (n *LogNotifier) Send(_ context.Context, event Event) error {
	n.logger.Info("notification",
		"recipient", event.Recipient,
		"matched_species", strings.Join(event.MatchedSpecies, ", "),
		"file_url", event.FileURL,
	)
	return nil
}

// ShoutrrrNotifier sends via nicholas-fedor/shoutrrr.
// Creates a single sender for multiple URLs.
type ShoutrrrNotifier struct {
	urls    []string
	sender  *router.ServiceRouter
	timeout time.Duration
}

// NewShoutrrrNotifier builds a push notifier for the given shoutrrr service
// URLs and validates them eagerly.
func NewShoutrrrNotifier(urls []string, timeout time.Duration) (*ShoutrrrNotifier, error) {
	if len(urls) == 0 {
		return nil, errors.Newf("at least one shoutrrr URL is required").
			Category(errors.CategoryConfiguration).
			Component("notify").
			Build()
	}

	sender, err := shoutrrr.CreateSender(urls...)
	if err != nil {
		return nil, errors.New(fmt.Errorf("creating shoutrrr sender: %w", err)).
			Category(errors.CategoryConfiguration).
			Component("notify").
			Build()
	}
	if timeout > 0 {
		sender.Timeout = timeout
	}
	sender.SetLogger(log.New(io.Discard, "", 0))

	return &ShoutrrrNotifier{
		urls:    slices.Clone(urls),
		sender:  sender,
		timeout: timeout,
	}, nil
}

func (n *ShoutrrrNotifier) Send(ctx context.Context, event Event) error {
	_ = ctx // router handles its own timeouts

	body := fmt.Sprintf("New upload contains bird(s) you're interested in: %s.\nOpen %s to check it out.",
		strings.Join(event.MatchedSpecies, ", "), event.FileURL)

	params := stypes.Params{}
	params.SetTitle("New Bird Species Uploaded!")

	sendErrs := n.sender.Send(body, &params)
	var failed []error
	for _, sendErr := range sendErrs {
		if sendErr != nil {
			failed = append(failed, sendErr)
		}
	}
	if len(failed) > 0 {
		return errors.New(fmt.Errorf("shoutrrr delivery: %w", errors.Join(failed...))).
			Category(errors.CategoryNotification).
			Component("notify").
			Build()
	}
	return nil
}
