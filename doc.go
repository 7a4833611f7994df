// Package frontdesk is an SDK for building AI receptionists: one agent
// persona answering phone calls, text messages, email, and video rooms,
// backed by pluggable infrastructure providers.
//
// The Receptionist is the composition root. It owns the agent configuration,
// the AI model, the tool registry, and the providers, and hands out one
// client per channel:
//
//	r, err := frontdesk.New(
//		frontdesk.WithAgent(frontdesk.AgentConfig{
//			Name: "June",
//			Role: "receptionist for Fern & Frond",
//		}),
//		frontdesk.WithModel(frontdesk.ModelConfig{Provider: frontdesk.ModelOpenAI}),
//		frontdesk.WithCommunicator(comm),
//		frontdesk.WithDefaultTools(),
//	)
//	if err != nil { ... }
//	if err := r.Initialize(ctx); err != nil { ... }
//	reply, err := r.Phone().HandleInbound(ctx, channels.InboundCall{...})
//
// Every inbound event runs one turn: the orchestrator assembles the system
// prompt and transcript, calls the model, executes whatever tools the model
// asks for, and persists the finished turn atomically. Tools declare
// channel-specific handlers so the same agent can speak on the phone and
// write HTML in email.
//
// Clone derives a sibling receptionist that shares the initialized
// providers and conversation store but carries its own persona and tool
// registry. Dispose tears shared infrastructure down exactly once, when the
// last member of the family is disposed.
package frontdesk
