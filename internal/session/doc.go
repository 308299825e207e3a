// Package session sequences a sign-in attempt for one mounted sign-in screen.
//
// A Controller resolves the redirect target for the running platform, asks
// the auth backend for a provider URL, opens it with the matching opener and
// waits for the redirect to come back through an embedded session, a deep
// link or the local loopback listener. A recovered token is installed on the
// backend and the navigator is sent to the requested page.
//
// Lifecycle:
//
//	Idle -> ListenerStarting -> ListenerActive -> CallbackReceived -> Idle
//	                                           \-> Stopped (Unmount)
//
// The loopback listener is only started when the redirect rules require it,
// and Unmount always releases it.
package session
