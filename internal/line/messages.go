package line

// Message is any payload accepted by the reply endpoint.
type Message interface {
	message()
}

type TextMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func (TextMessage) message() {}

func NewTextMessage(text string) TextMessage {
	return TextMessage{Type: "text", Text: text}
}

// TemplateMessage wraps a buttons template. AltText is shown on clients
// that cannot render the card.
type TemplateMessage struct {
	Type     string          `json:"type"`
	AltText  string          `json:"altText"`
	Template ButtonsTemplate `json:"template"`
}

func (TemplateMessage) message() {}

type ButtonsTemplate struct {
	Type    string   `json:"type"`
	Title   string   `json:"title,omitempty"`
	Text    string   `json:"text"`
	Actions []Action `json:"actions"`
}

type Action struct {
	Type  string `json:"type"`
	Label string `json:"label"`
	Text  string `json:"text,omitempty"`
}

// NewMessageAction builds an action that sends text back into the chat
// when tapped.
func NewMessageAction(label, text string) Action {
	return Action{Type: "message", Label: label, Text: text}
}

func NewButtonsMessage(altText, title, text string, actions ...Action) TemplateMessage {
	return TemplateMessage{
		Type:    "template",
		AltText: altText,
		Template: ButtonsTemplate{
			Type:    "buttons",
			Title:   title,
			Text:    text,
			Actions: actions,
		},
	}
}
