package frontdesk

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/casualjim/frontdesk/provider"
	"github.com/casualjim/frontdesk/tool"
)

const defaultHours = "9:00 AM to 5:00 PM, Monday through Friday"

// TakenMessage is one message recorded by the take_message tool.
type TakenMessage struct {
	ConversationID string
	Caller         string
	Message        string
	TakenAt        time.Time
}

type messageBook struct {
	mu   sync.Mutex
	msgs []TakenMessage
}

func (b *messageBook) take(m TakenMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs = append(b.msgs, m)
}

func (b *messageBook) all() []TakenMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]TakenMessage(nil), b.msgs...)
}

type takeMessageArgs struct {
	CallerName string `json:"caller_name" jsonschema:"description=Name of the person leaving the message"`
	Message    string `json:"message" jsonschema:"description=The message to pass along"`
}

type bookAppointmentArgs struct {
	Title           string `json:"title" jsonschema:"description=What the appointment is for"`
	Start           string `json:"start" jsonschema:"description=Start time in RFC 3339 format"`
	DurationMinutes int    `json:"duration_minutes" jsonschema:"description=Length of the appointment in minutes"`
	Attendee        string `json:"attendee" jsonschema:"description=Name of the person the appointment is for"`
}

type transferCallArgs struct {
	Department string `json:"department" jsonschema:"description=Department or person to transfer to"`
}

// defaultTools builds the built-in tool set. book_appointment only exists
// when a calendar provider is bound.
func (r *Receptionist) defaultTools() []tool.Tool {
	tools := []tool.Tool{
		r.takeMessageTool(),
		r.businessHoursTool(),
	}
	if r.calendar != nil {
		tools = append(tools, r.bookAppointmentTool())
	}
	tools = append(tools, transferCallTool())
	return tools
}

func (r *Receptionist) takeMessageTool() tool.Tool {
	book := r.messages
	return tool.Must("take_message",
		tool.Description("Record a message from the caller so a human can follow up."),
		tool.Schema[takeMessageArgs](),
		tool.DefaultHandler(func(_ context.Context, call tool.Call) (tool.Result, error) {
			caller := call.Params.String("caller_name")
			message := call.Params.String("message")
			if message == "" {
				return tool.Result{}, fmt.Errorf("a message is required")
			}

			book.take(TakenMessage{
				ConversationID: call.ConversationID,
				Caller:         caller,
				Message:        message,
				TakenAt:        time.Now(),
			})
			return tool.Result{
				Success: true,
				Response: tool.Response{
					Speak:   "I've taken your message and someone will get back to you shortly.",
					Message: "Got it! We'll get back to you shortly.",
					Text:    "Your message has been recorded. We will get back to you shortly.",
					HTML:    "<p>Your message has been recorded. We will get back to you shortly.</p>",
				},
			}, nil
		}),
	)
}

func (r *Receptionist) businessHoursTool() tool.Tool {
	hours := r.hours
	return tool.Must("check_business_hours",
		tool.Description("Look up when the business is open."),
		tool.DefaultHandler(func(context.Context, tool.Call) (tool.Result, error) {
			return tool.Result{
				Success: true,
				Data:    hours,
				Response: tool.Response{
					Speak:   fmt.Sprintf("We're open %s.", hours),
					Message: fmt.Sprintf("We're open %s.", hours),
					Text:    fmt.Sprintf("Our business hours are %s.", hours),
					HTML:    fmt.Sprintf("<p>Our business hours are <strong>%s</strong>.</p>", hours),
				},
			}, nil
		}),
	)
}

func (r *Receptionist) bookAppointmentTool() tool.Tool {
	cal := r.calendar
	return tool.Must("book_appointment",
		tool.Description("Book an appointment on the calendar. Times are RFC 3339."),
		tool.Schema[bookAppointmentArgs](),
		tool.DefaultHandler(func(ctx context.Context, call tool.Call) (tool.Result, error) {
			start, err := parseStart(call.Params.String("start"))
			if err != nil {
				return tool.Result{}, err
			}
			duration := call.Params.Int("duration_minutes")
			if duration == 0 {
				duration = 30
			}

			id, err := cal.CreateEvent(ctx, provider.Event{
				Title:           call.Params.String("title"),
				Start:           start,
				DurationMinutes: duration,
				Attendee:        call.Params.String("attendee"),
			})
			if err != nil {
				return tool.Result{}, err
			}

			when := start.Format("Monday, January 2 at 3:04 PM")
			return tool.Result{
				Success: true,
				Data:    map[string]string{"event_id": id},
				Response: tool.Response{
					Speak:   fmt.Sprintf("You're booked for %s.", when),
					Message: fmt.Sprintf("Booked: %s.", when),
					Text:    fmt.Sprintf("Your appointment is confirmed for %s.", when),
					HTML:    fmt.Sprintf("<p>Your appointment is confirmed for <strong>%s</strong>.</p>", when),
				},
			}, nil
		}),
	)
}

// transferCallTool only makes sense on live sessions, so it binds to phone
// and video without a default handler.
func transferCallTool() tool.Tool {
	handler := func(_ context.Context, call tool.Call) (tool.Result, error) {
		department := call.Params.String("department")
		if department == "" {
			department = "the front desk"
		}
		return tool.Result{
			Success: true,
			Data:    map[string]string{"transfer_to": department},
			Response: tool.Response{
				Speak: fmt.Sprintf("One moment, I'll transfer you to %s.", department),
			},
		}, nil
	}
	return tool.Must("transfer_call",
		tool.Description("Transfer the caller to a department or person."),
		tool.Schema[transferCallArgs](),
		tool.OnPhone(handler),
		tool.OnVideo(handler),
	)
}

func parseStart(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("a start time is required")
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02 15:04", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized start time %q, use RFC 3339", value)
	}
	return t, nil
}
