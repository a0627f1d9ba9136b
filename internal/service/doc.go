// Package service implements the task assignment and status synchronization
// engine on top of the store contracts.
//
// Key components:
//
//   - TransitionGuard enforces the task status state machine and the
//     downgrade grace window.
//   - AssignmentEngine assigns tasks manually or picks eligible staff for
//     system assignment through a StaffSelector.
//   - HandoffEngine moves an assigned task to another staff member.
//   - ReverseSyncEngine derives a guest request's status from the tasks it
//     spawned.
//   - RequestIntakeBridge accepts guest requests and, when enabled, spawns
//     and assigns their tasks.
//   - TaskService and GuestRequestService are the facades used by the API.
//
// Every task or request write is a compare-and-swap on the entity version.
// Side effects after a committed write (events, reverse sync) are logged on
// failure and never undo the write.
package service
