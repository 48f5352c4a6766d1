// Package notifications delivers extraction events to the user.
//
// When an ntfy topic is configured events are POSTed to it; otherwise they
// are written to the structured log so a headless daemon still leaves a
// trace. Progress events are reduced to milestones (0, every
// progress_milestone percent, and 100) and throttled with a token bucket;
// the closing 100 is never throttled.
//
// Workflow code depends only on the Service interface.
package notifications
