package contracts

// EmailMessage is a single-recipient HTML email. It is also the JSON body
// published to the broker by the rabbitmq sender.
type EmailMessage struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`

	RequestID string `json:"request_id,omitempty"`
	Producer  string `json:"producer"` // "webhook-service"
}
