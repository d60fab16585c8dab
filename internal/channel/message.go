// Package channel fetches messages from a single Discord channel over HTTP.
package channel

import "strconv"

// Message is one message object as returned by the channel listing endpoint.
// Only the fields the relay consumes are mapped.
type Message struct {
	ID      string  `json:"id"`
	Content string  `json:"content"`
	Embeds  []Embed `json:"embeds"`
}

// Embed carries the structured part of a message. Only the first embed is
// ever consulted.
type Embed struct {
	Description string  `json:"description"`
	Footer      *Footer `json:"footer"`
}

// Footer is the optional footer object of an embed.
type Footer struct {
	Text string `json:"text"`
}

// NumericID parses the snowflake id for ordering and dedup. Malformed ids
// parse to zero and therefore sort before any real message.
func (m Message) NumericID() int64 {
	n, err := strconv.ParseInt(m.ID, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
