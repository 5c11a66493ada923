// Package mocks provides test doubles for ports interfaces.
//
// These mocks are designed to be simple, thread-safe, in-memory implementations
// suitable for unit testing. Each mock provides:
//
//   - Default behavior that returns reasonable test values
//   - Callback functions (xxxFn) for customizing behavior per test
//   - Helper methods for setting state directly
//   - Recorded calls for assertions
//
// # Usage Example
//
//	func TestPipeline(t *testing.T) {
//		store := mocks.NewStore()
//		store.PutUser(domain.UserSettings{UserID: 1, CriticalEnabled: "sms"})
//		store.AddWaitingCheck(domain.WaitingCheck{UserID: 1, Content: "package arrives"})
//
//		engine := triage.NewEngine(store, ...)
//		// ... test engine behavior
//	}
//
// # Available Mocks
//
//   - Store: implements every persistence port (users, bridges, rooms, timeline,
//     event queue, waiting checks, priority senders, notification log, history,
//     credits, emails, locks)
//   - Calendar: implements ports.CalendarProvider
//   - SMSSender, VoiceCaller, AdminAlerter: record outbound traffic
package mocks
