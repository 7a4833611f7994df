// Package channel defines the communication media a receptionist can serve.
// A single logical agent is routed across these channels; tools and response
// shaping key off the channel of the active conversation.
package channel

// Channel identifies one communication medium.
type Channel string

const (
	Phone Channel = "phone"
	SMS   Channel = "sms"
	Email Channel = "email"
	Video Channel = "video"
)

// All returns every supported channel in a stable order.
func All() []Channel {
	return []Channel{Phone, SMS, Email, Video}
}

// Valid reports whether c is one of the supported channels.
func (c Channel) Valid() bool {
	switch c {
	case Phone, SMS, Email, Video:
		return true
	default:
		return false
	}
}

func (c Channel) String() string {
	return string(c)
}
