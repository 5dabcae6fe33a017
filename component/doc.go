// Package component defines the lifecycle contract shared by the long-lived
// parts of the bot: the job poller, the chat adapter and the status server.
//
// Components are registered with a Registry, started in registration order
// and stopped in reverse order.
package component
