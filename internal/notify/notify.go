// Package notify delivers quality alerts for analyzed scans to the operator
// through shoutrrr service URLs.
package notify

import (
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	shoutrrr "github.com/nicholas-fedor/shoutrrr"
	"github.com/nicholas-fedor/shoutrrr/pkg/router"
	"github.com/nicholas-fedor/shoutrrr/pkg/types"
	"golang.org/x/time/rate"

	"github.com/graintec/ricenet-go/internal/conf"
	"github.com/graintec/ricenet-go/internal/errors"
	"github.com/graintec/ricenet-go/internal/quality"
)

// Alert flood control. A short burst covers a bad batch, after that one
// alert per interval is enough to keep the operator informed.
const (
	alertBurst    = 3
	alertInterval = 30 * time.Second
)

// Notifier sends scan quality alerts. A disabled notifier is valid and all
// its alert calls are no-ops.
type Notifier struct {
	settings *conf.Settings
	sender   *router.ServiceRouter
	limiter  *rate.Limiter
	minRank  int
}

// New builds a notifier from the notification settings. Service URLs are
// validated up front so a typo surfaces at startup, not at the first alert.
func New(settings *conf.Settings) (*Notifier, error) {
	n := &Notifier{settings: settings}
	if !settings.Notify.Enabled {
		return n, nil
	}

	if len(settings.Notify.URLs) == 0 {
		return nil, errors.Newf("notifications enabled but no service URLs configured").
			Component("notify").
			Category(errors.CategoryConfiguration).
			Build()
	}

	minSeverity, err := parseSeverity(settings.Notify.MinSeverity)
	if err != nil {
		return nil, err
	}
	n.minRank = minSeverity.Rank()

	sender, err := shoutrrr.CreateSender(settings.Notify.URLs...)
	if err != nil {
		// The error may echo a URL containing credentials, report only the count.
		return nil, errors.Newf("creating notification sender failed").
			Component("notify").
			Category(errors.CategoryConfiguration).
			Context("url_count", len(settings.Notify.URLs)).
			Build()
	}
	sender.SetLogger(log.New(io.Discard, "", 0))
	n.sender = sender
	n.limiter = rate.NewLimiter(rate.Every(alertInterval), alertBurst)

	return n, nil
}

// Enabled reports whether the notifier will deliver alerts.
func (n *Notifier) Enabled() bool {
	return n.sender != nil
}

// ShouldAlert reports whether the scan's assessment crosses the configured
// alert bar: a defect warning at or above the minimum severity, or a below
// grade result when those alerts are enabled.
func (n *Notifier) ShouldAlert(scan *quality.Scan) bool {
	if !n.Enabled() {
		return false
	}
	if n.settings.Notify.OnBelowGrade && scan.Classifications.MillingGrade.BelowGrade() {
		return true
	}
	for _, w := range scan.Classifications.Warnings {
		if w.Severity.Rank() >= n.minRank {
			return true
		}
	}
	return false
}

// ScanAlert delivers an alert for the scan when it crosses the alert bar.
// Alerts beyond the flood control budget are dropped, not queued.
func (n *Notifier) ScanAlert(scan *quality.Scan) error {
	if !n.ShouldAlert(scan) {
		return nil
	}

	if !n.limiter.Allow() {
		getLogger().Warn("alert rate limit reached, dropping alert",
			"scan_id", scan.ID,
			"grade", scan.Classifications.MillingGrade.Code)
		return nil
	}

	title, body := alertContent(scan)
	params := types.Params{}
	params.SetTitle(title)

	if errs := n.sender.Send(body, &params); len(errs) > 0 {
		for _, err := range errs {
			if err == nil {
				continue
			}
			return errors.Newf("delivering quality alert: %w", err).
				Component("notify").
				Category(errors.CategoryNotification).
				Context("scan_id", scan.ID).
				Build()
		}
	}

	getLogger().Info("quality alert delivered",
		"scan_id", scan.ID,
		"grade", scan.Classifications.MillingGrade.Code,
		"warnings", len(scan.Classifications.Warnings))
	return nil
}

// alertContent renders the alert title and body from the scan assessment.
func alertContent(scan *quality.Scan) (title, body string) {
	grade := scan.Classifications.MillingGrade
	title = fmt.Sprintf("Rice quality alert: %s", grade.Label)

	var b strings.Builder
	fmt.Fprintf(&b, "%s rice sample graded %s (%.1f%% broken kernels).",
		scan.RiceType.Title(), grade.Label, grade.BrokenPercent)

	if len(scan.Classifications.Warnings) > 0 {
		b.WriteString(" Defects:")
		for i, w := range scan.Classifications.Warnings {
			if i > 0 {
				b.WriteString(",")
			}
			fmt.Fprintf(&b, " %s %.1f%% (%s)", w.Type, w.Percentage, w.Severity)
		}
		b.WriteString(".")
	}

	fmt.Fprintf(&b, " Scan %s captured %s.", scan.ID, scan.CapturedAt.Format(time.DateTime))
	return title, b.String()
}

// parseSeverity normalizes the configured minimum severity. An empty value
// defaults to low so every warning alerts.
func parseSeverity(s string) (quality.Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "low":
		return quality.SeverityLow, nil
	case "medium":
		return quality.SeverityMedium, nil
	case "high":
		return quality.SeverityHigh, nil
	default:
		return "", errors.Newf("unknown minimum severity %q, expected low, medium or high", s).
			Component("notify").
			Category(errors.CategoryConfiguration).
			Context("min_severity", s).
			Build()
	}
}
