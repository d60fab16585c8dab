// Package extract turns a raw channel message into the canonical signal text
// sent to the trading server. Everything in here is pure: no I/O, no state.
package extract

import (
	"regexp"
	"strings"

	"github.com/candree7-rgb/zeiiforward/internal/channel"
)

var (
	blockSep   = regexp.MustCompile(`\n\s*\n`)
	tfPattern  = regexp.MustCompile(`(?i)Timeframe:\s*[A-Za-z0-9]+`)
	tfTrailing = regexp.MustCompile(`(?i)\n?Timeframe:\s*[A-Za-z0-9]+\s*$`)
)

// FirstBlock isolates the first logical signal block: text up to the first
// run of one-or-more blank lines, trimmed.
func FirstBlock(text string) string {
	parts := blockSep.Split(strings.TrimSpace(text), 2)
	if len(parts) == 0 {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(parts[0])
}

// TimeframeLine returns the complete "Timeframe: XYZ" line if the text
// contains one, matched case-insensitively. The whole matched text is
// returned, not just the value, so the line can be relocated verbatim.
func TimeframeLine(text string) (string, bool) {
	m := tfPattern.FindString(text)
	if m == "" {
		return "", false
	}
	return strings.TrimSpace(m), true
}

// SignalText builds the final signal block for a message:
//
//   - the first embed's description (first block) is preferred over the
//     message content (first block) as the base text
//   - the Timeframe line ends up as the last line, exactly once, sourced
//     from the base block itself, else the full content, else the embed
//     footer
//   - an empty base yields an empty result, meaning "skip this message"
func SignalText(msg channel.Message) string {
	content := strings.TrimSpace(msg.Content)

	var desc, footerText string
	if len(msg.Embeds) > 0 {
		desc = strings.TrimSpace(msg.Embeds[0].Description)
		if msg.Embeds[0].Footer != nil {
			footerText = strings.TrimSpace(msg.Embeds[0].Footer.Text)
		}
	}

	source := content
	if desc != "" {
		source = desc
	}
	base := FirstBlock(source)
	if base == "" {
		return ""
	}

	if inline, ok := TimeframeLine(base); ok {
		// The base block's own Timeframe line wins; drop a trailing copy
		// before re-appending so it shows up exactly once, at the end.
		stripped := strings.TrimRight(tfTrailing.ReplaceAllString(base, ""), " \t\n")
		return strings.TrimSpace(stripped + "\n" + inline)
	}

	line, ok := TimeframeLine(content)
	if !ok && footerText != "" {
		line, ok = TimeframeLine(footerText)
	}
	if !ok {
		return base
	}
	return strings.TrimSpace(strings.TrimRight(base, " \t\n") + "\n" + line)
}
