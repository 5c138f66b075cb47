// Package scrape turns the rendered YouTube live-chat DOM into chat.Events.
//
// The DOM is reached through two small interfaces, Document and Element, so the
// normalization rules can be exercised without a browser. ParseHTML provides the
// goquery-backed implementation used in production; it reads the same selectors
// the live-chat page renders (yt-live-chat-text-message-renderer,
// yt-live-chat-membership-item-renderer and their #author-name, #author-photo,
// #chat-badges and #message children).
//
// A Scanner remembers forwarded element ids in a dedup.SeenCache and sends each
// new event at most once. Run drives a Scanner from a Source on a fixed ticker.
package scrape
