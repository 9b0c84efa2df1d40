package profile

// QuickAction is a canned prompt offered on the welcome panel.
type QuickAction struct {
	Label   string `json:"label"`
	Message string `json:"message"`
}

// Profile describes the assistant a session talks to.
type Profile struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Title        string        `json:"title"`
	Welcome      string        `json:"welcome"`
	QuickActions []QuickAction `json:"quickActions,omitempty"`
}

// DefaultID is the profile used when a client does not pick one.
const DefaultID = "k2"

// Seed provides the built-in policy assistant.
func Seed() []Profile {
	return []Profile{
		{
			ID:      DefaultID,
			Name:    "K2",
			Title:   "Policy Assistant",
			Welcome: "Welcome to K2. I can help you analyze policy documents, search regulations, and work through compliance questions.",
			QuickActions: []QuickAction{
				{Label: "Analyze a policy", Message: "Can you analyze a policy document for me?"},
				{Label: "Search regulations", Message: "Search the regulation database"},
				{Label: "Compliance guidance", Message: "I need compliance guidance"},
				{Label: "What can you do?", Message: "Help me get started"},
			},
		},
	}
}

// QuickActionMessage returns the message for the 1-based quick action index.
func (p Profile) QuickActionMessage(index int) (string, bool) {
	if index < 1 || index > len(p.QuickActions) {
		return "", false
	}
	return p.QuickActions[index-1].Message, true
}
