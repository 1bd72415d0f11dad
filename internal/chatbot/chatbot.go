// Package chatbot produces scripted replies for the in-app assistant. Fixed
// keyword rules are tried first, in order; an optional FAQ index answers what
// the rules miss, and anything else gets the support fallback.
package chatbot

import (
	"strings"
)

// Canned replies.
const (
	ReplyArchitect   = "You can contact architects here: architect@planora.com"
	ReplyElectrician = "Electricians near you: Rahul (+91 9876543234), Aman (+91 9876543245)"
	ReplyPlumber     = "Plumbers: Ramesh (+91 9876543210), Suresh (+91 9876543221)"
	ReplyGreeting    = "Hi there 👋! How can I help you today?"
	ReplyFallback    = "I’m not sure, but you can reach our support team at support@planora.com."
)

// Context types recorded with each reply.
const (
	ContextRule     = "rule"
	ContextFAQ      = "faq"
	ContextFallback = "fallback"
)

// Reply is the answer plus where it came from.
type Reply struct {
	Text        string
	ContextType string
	Score       float64
}

type rule struct {
	match func(lower string, words map[string]struct{}) bool
	reply string
}

func contains(sub string) func(string, map[string]struct{}) bool {
	return func(lower string, _ map[string]struct{}) bool { return strings.Contains(lower, sub) }
}

func anyWord(ws ...string) func(string, map[string]struct{}) bool {
	return func(_ string, words map[string]struct{}) bool {
		for _, w := range ws {
			if _, ok := words[w]; ok {
				return true
			}
		}
		return false
	}
}

var rules = []rule{
	{contains("architect"), ReplyArchitect},
	{contains("electrician"), ReplyElectrician},
	{contains("plumber"), ReplyPlumber},
	{anyWord("hello", "hi"), ReplyGreeting},
}

// Bot answers chat messages. The zero value answers from rules only.
type Bot struct {
	FAQ       FAQ
	Threshold float64
}

// New returns a Bot. faq may be nil.
func New(faq FAQ, threshold float64) *Bot {
	return &Bot{FAQ: faq, Threshold: threshold}
}

// Reply returns the scripted answer to message.
func (b *Bot) Reply(message string) Reply {
	lower := fold(message)
	words := make(map[string]struct{})
	for _, w := range wordRE.FindAllString(lower, -1) {
		words[w] = struct{}{}
	}
	for _, r := range rules {
		if r.match(lower, words) {
			return Reply{Text: r.reply, ContextType: ContextRule, Score: 1}
		}
	}
	if b != nil && b.FAQ != nil {
		if m, ok := b.FAQ.Best(message); ok && m.Score >= b.Threshold {
			return Reply{Text: m.Answer, ContextType: ContextFAQ, Score: m.Score}
		}
	}
	return Reply{Text: ReplyFallback, ContextType: ContextFallback}
}
