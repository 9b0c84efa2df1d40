// Package keyword maps user text to canned replies by ordered substring match.
package keyword

import (
	"context"
	"strings"
)

// Rule pairs a lower-case keyword with the reply it triggers.
type Rule struct {
	Keyword string `yaml:"keyword" json:"keyword"`
	Reply   string `yaml:"reply" json:"reply"`
}

// Table is evaluated in order; the first rule whose keyword occurs in the
// lower-cased input wins, otherwise Default is returned.
type Table struct {
	Rules   []Rule `yaml:"rules" json:"rules"`
	Default string `yaml:"default" json:"default"`
}

const (
	PolicyReply     = "I can help you analyze policy documents and provide insights. What specific policy would you like to discuss?"
	RegulationReply = "I have access to various regulations and compliance guidelines. Which area of regulation are you interested in?"
	ComplianceReply = "I can assist with compliance guidance and requirements. What compliance area do you need help with?"
	AnalyzeReply    = "I'd be happy to analyze that for you. Could you please provide more details or upload the document?"
	SearchReply     = "I can search through our policy database. What specific terms or topics would you like me to search for?"
	HelpReply       = "I'm here to help! I can assist with policy analysis, regulation searches, compliance guidance, and more. What can I help you with today?"
	DefaultReply    = "I understand you're asking about that topic. As an AI assistant specialized in policy analysis, I can help you with various policy-related questions. Could you provide more specific details about what you'd like to know?"
)

var defaultRules = []Rule{
	{Keyword: "policy", Reply: PolicyReply},
	{Keyword: "regulation", Reply: RegulationReply},
	{Keyword: "compliance", Reply: ComplianceReply},
	{Keyword: "analyze", Reply: AnalyzeReply},
	{Keyword: "search", Reply: SearchReply},
	{Keyword: "help", Reply: HelpReply},
}

// DefaultTable returns the built-in policy assistant table.
func DefaultTable() Table {
	return Table{
		Rules:   append([]Rule(nil), defaultRules...),
		Default: DefaultReply,
	}
}

// GenerateResponse answers userText from the built-in table.
func GenerateResponse(userText string) string {
	return DefaultTable().Generate(userText)
}

// Match returns the first rule whose keyword occurs in text.
func (t Table) Match(text string) (Rule, bool) {
	normalized := strings.ToLower(text)
	for _, rule := range t.Rules {
		if rule.Keyword == "" {
			continue
		}
		if strings.Contains(normalized, rule.Keyword) {
			return rule, true
		}
	}
	return Rule{}, false
}

// Generate is pure: same input, same reply.
func (t Table) Generate(userText string) string {
	if rule, ok := t.Match(userText); ok {
		return rule.Reply
	}
	return t.Default
}

// Respond lets a Table act as a session responder.
func (t Table) Respond(_ context.Context, userText string) string {
	return t.Generate(userText)
}
