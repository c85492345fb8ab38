package render

import (
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/trebuchet-org/deployplan/internal/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FormatWarning formats a warning message with the warning icon
func FormatWarning(message string) string {
	return color.New(color.FgYellow).Sprintf("⚠️  %s", message)
}

// FormatError formats an error message with the error icon
func FormatError(message string) string {
	if len(message) > 0 {
		message = strings.ToUpper(message[:1]) + message[1:]
	}
	return color.New(color.FgRed).Sprintf("❌ %s", message)
}

// FormatSuccess formats a success message with the success icon
func FormatSuccess(message string) string {
	return color.New(color.FgGreen).Sprintf("✅ %s", message)
}

// statusLabel renders a verification status as a colored title-cased word
func statusLabel(status domain.VerificationStatus) string {
	label := cases.Title(language.English).String(strings.ToLower(string(status)))
	switch status {
	case domain.VerificationStatusVerified:
		return color.New(color.FgGreen).Sprint(label)
	case domain.VerificationStatusFailed:
		return color.New(color.FgRed).Sprint(label)
	case domain.VerificationStatusSkipped:
		return color.New(color.Faint).Sprint(label)
	case "":
		return color.New(color.Faint).Sprint("-")
	default:
		return color.New(color.FgYellow).Sprint(label)
	}
}

// renderTable renders rows as a borderless left-aligned table
func renderTable(header table.Row, rows []table.Row) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.Style().Options.SeparateRows = false
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateHeader = false
	t.Style().Options.SeparateColumns = false
	t.Style().Box = table.BoxStyle{
		PaddingLeft:  "  ",
		PaddingRight: " ",
	}
	t.Style().Format.Header = text.FormatUpper

	colConfigs := make([]table.ColumnConfig, len(header))
	for i := range header {
		colConfigs[i] = table.ColumnConfig{Number: i + 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft}
	}
	t.SetColumnConfigs(colConfigs)

	t.AppendHeader(header)
	for _, row := range rows {
		t.AppendRow(row)
	}
	return t.Render()
}
