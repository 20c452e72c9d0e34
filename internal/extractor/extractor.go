// Package extractor turns an appliance alert e-mail body into a push
// notification.
//
// The body is markdown with an HTML line-break convention: the first segment
// before "<br><br>" is the title line ("TrueNAS @ <host>"), the rest is the
// alert digest. The digest is rendered to HTML, flattened to plain text and,
// when the "New alerts:" / "Current alerts:" markers are present, narrowed to
// the new alerts only.
package extractor

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"

	"nasrelay/internal/constants"
	apperrors "nasrelay/pkg/errors"
	"nasrelay/pkg/models"
)

var ErrMissingTitle = errors.New("event message has no title line")

type Options struct {
	// NamePrefix is stripped from the title line, e.g. "TrueNAS @ ".
	NamePrefix string
	// SourceBaseURL is the target of the "Open <title>" action. No action
	// is attached when it is empty.
	SourceBaseURL string
}

type Extractor struct {
	namePrefix    string
	sourceBaseURL string
	markdown      goldmark.Markdown
}

func New(opts Options) *Extractor {
	return &Extractor{
		namePrefix:    opts.NamePrefix,
		sourceBaseURL: opts.SourceBaseURL,
		markdown: goldmark.New(
			// raw inline HTML such as <br> must reach the HTML parser
			goldmark.WithRendererOptions(goldmarkhtml.WithUnsafe()),
		),
	}
}

// Extract builds the notification for one event message body. Every failure
// is an ErrExtraction.
func (e *Extractor) Extract(body string, priority models.Priority) (*models.Notification, error) {
	titleLine := TitleLine(body)
	if titleLine == "" {
		return nil, apperrors.Wrap(ErrMissingTitle, apperrors.ErrExtraction)
	}

	title := e.Title(titleLine)

	text, err := e.RenderPlainText(strings.ReplaceAll(body, titleLine, ""))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrExtraction)
	}

	message := ExtractAlertText(text)
	if message == "" {
		message = title
	}

	builder := models.NewNotificationBuilder().
		WithTitle(title).
		WithMessage(message).
		WithPriority(priority).
		WithTag(constants.DefaultHeaderTag)

	if e.sourceBaseURL != "" {
		builder = builder.WithViewAction(fmt.Sprintf("Open %s", title), e.sourceBaseURL)
	}

	notification := builder.Build()
	if err := models.ValidateNotification(notification); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrExtraction)
	}

	return notification, nil
}

// TitleLine returns the segment before the first "<br><br>", or the whole
// body when there is no separator.
func TitleLine(body string) string {
	title, _, _ := strings.Cut(body, constants.TitleSeparator)
	return title
}

// Title strips every occurrence of the configured name prefix.
func (e *Extractor) Title(titleLine string) string {
	if e.namePrefix == "" {
		return strings.TrimSpace(titleLine)
	}
	return strings.TrimSpace(strings.ReplaceAll(titleLine, e.namePrefix, ""))
}

// RenderPlainText renders markdown to HTML and returns the document text
// with every tag removed.
func (e *Extractor) RenderPlainText(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := e.markdown.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return HTMLToText(&buf)
}

// ExtractAlertText narrows text to what lies between "New alerts:" and
// "Current alerts:". Without both markers in that order the whole text is
// returned. The result is trimmed either way.
func ExtractAlertText(text string) string {
	start := strings.Index(text, constants.NewAlertsMarker)
	end := strings.Index(text, constants.CurrentAlertsMarker)

	if start == -1 || end == -1 || end <= start {
		return strings.TrimSpace(text)
	}

	start += len(constants.NewAlertsMarker)
	return strings.TrimSpace(text[start:end])
}
