package tui

import (
	"fmt"
	"strings"
)

// Summary describes a finished install for the closing screen.
type Summary struct {
	URL       string
	Dir       string
	AdminUser string
	// Failed lists best-effort steps that did not apply.
	Failed []string
}

// Render returns the closing screen: where the instance lives and what to
// run next.
func (s Summary) Render() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("  Nextcloud is ready"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "  URL:          %s\n", selectedStyle.Render(s.URL))
	fmt.Fprintf(&b, "  Admin user:   %s\n", normalStyle.Render(s.AdminUser))
	fmt.Fprintf(&b, "  Stack dir:    %s\n", normalStyle.Render(s.Dir))

	if len(s.Failed) > 0 {
		b.WriteString("\n")
		b.WriteString(titleStyle.Render("  Steps to retry"))
		b.WriteString("\n")
		for _, f := range s.Failed {
			b.WriteString(helpStyle.Render("  - " + f))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(titleStyle.Render("  Next Steps"))
	b.WriteString("\n")
	for _, line := range []string{
		"$ ncctl status      # check containers",
		"$ ncctl configure   # re-apply post-install settings",
		"$ ncctl backup      # dump the database",
		"$ ncctl doctor      # verify the host",
	} {
		b.WriteString(helpStyle.Render("  " + line))
		b.WriteString("\n")
	}
	return b.String()
}
