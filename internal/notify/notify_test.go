package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graintec/ricenet-go/internal/conf"
	"github.com/graintec/ricenet-go/internal/quality"
)

func notifySettings(enabled bool, minSeverity string, onBelowGrade bool) *conf.Settings {
	settings := &conf.Settings{}
	settings.Notify.Enabled = enabled
	settings.Notify.URLs = []string{"generic://alerts.example.com/webhook"}
	settings.Notify.MinSeverity = minSeverity
	settings.Notify.OnBelowGrade = onBelowGrade
	return settings
}

func alertScan(gradeCode string, warnings []quality.DefectWarning) *quality.Scan {
	labels := map[string]string{
		"P":  "Premium",
		"1":  "Grade 1",
		"BG": "Below Grade",
	}
	return &quality.Scan{
		ID:         "scan-1",
		RiceType:   quality.RiceWhite,
		CapturedAt: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
		Classifications: quality.Classifications{
			MillingGrade: quality.MillingGrade{Label: labels[gradeCode], Code: gradeCode, BrokenPercent: 8},
			Warnings:     warnings,
		},
	}
}

func TestNewDisabledNotifierIsNoOp(t *testing.T) {
	t.Parallel()

	settings := notifySettings(false, "low", true)
	n, err := New(settings)
	require.NoError(t, err)

	assert.False(t, n.Enabled())
	assert.False(t, n.ShouldAlert(alertScan("BG", nil)))
	assert.NoError(t, n.ScanAlert(alertScan("BG", nil)))
}

func TestNewRequiresURLs(t *testing.T) {
	t.Parallel()

	settings := notifySettings(true, "low", false)
	settings.Notify.URLs = nil

	_, err := New(settings)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no service URLs")
}

func TestNewRejectsUnknownSeverity(t *testing.T) {
	t.Parallel()

	settings := notifySettings(true, "urgent", false)

	_, err := New(settings)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown minimum severity")
}

func TestShouldAlert(t *testing.T) {
	t.Parallel()

	highWarning := []quality.DefectWarning{
		{Type: quality.DefectBlack, Severity: quality.SeverityHigh, Percentage: 30},
	}
	lowWarning := []quality.DefectWarning{
		{Type: quality.DefectRed, Severity: quality.SeverityLow, Percentage: 6},
	}

	tests := []struct {
		name         string
		minSeverity  string
		onBelowGrade bool
		scan         *quality.Scan
		want         bool
	}{
		{"high warning passes high bar", "high", false, alertScan("1", highWarning), true},
		{"low warning passes low bar", "low", false, alertScan("1", lowWarning), true},
		{"low warning blocked by high bar", "high", false, alertScan("1", lowWarning), false},
		{"clean premium scan stays quiet", "low", true, alertScan("P", nil), false},
		{"below grade alerts when enabled", "high", true, alertScan("BG", nil), true},
		{"below grade ignored when disabled", "high", false, alertScan("BG", nil), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			n, err := New(notifySettings(true, tt.minSeverity, tt.onBelowGrade))
			require.NoError(t, err)
			require.True(t, n.Enabled())
			assert.Equal(t, tt.want, n.ShouldAlert(tt.scan))
		})
	}
}

func TestAlertContent(t *testing.T) {
	t.Parallel()

	warnings := []quality.DefectWarning{
		{Type: quality.DefectBlack, Severity: quality.SeverityHigh, Percentage: 30},
		{Type: quality.DefectChalky, Severity: quality.SeverityMedium, Percentage: 12.5},
	}
	scan := alertScan("BG", warnings)
	scan.Classifications.MillingGrade.BrokenPercent = 32.5

	title, body := alertContent(scan)
	assert.Equal(t, "Rice quality alert: Below Grade", title)
	assert.Contains(t, body, "White rice sample graded Below Grade (32.5% broken kernels)")
	assert.Contains(t, body, "black 30.0% (high)")
	assert.Contains(t, body, "chalky 12.5% (medium)")
	assert.Contains(t, body, "scan-1")
}

func TestParseSeverity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    quality.Severity
		wantErr bool
	}{
		{"", quality.SeverityLow, false},
		{"low", quality.SeverityLow, false},
		{"Medium", quality.SeverityMedium, false},
		{" HIGH ", quality.SeverityHigh, false},
		{"urgent", "", true},
	}

	for _, tt := range tests {
		got, err := parseSeverity(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestAlertFloodControl(t *testing.T) {
	t.Parallel()

	n, err := New(notifySettings(true, "low", true))
	require.NoError(t, err)
	require.NotNil(t, n.limiter)

	for i := range alertBurst {
		assert.True(t, n.limiter.Allow(), "allowance %d should fit the burst", i)
	}
	assert.False(t, n.limiter.Allow(), "burst budget should be exhausted")
}
