// Package chat defines the normalized live-chat record exchanged between the
// scraper, the relay and the viewer.
//
// A chat.Event is produced once per YouTube chat or membership item and is
// serialized as a flat JSON object:
//
//	{"author":"...","authorImage":null,"message":"...","isMember":false,
//	 "isModerator":false,"memberBadgeImage":null,"timestamp":"2024-01-01T00:00:00.000Z"}
//
// Inline emoji images are flattened into the message text as placeholder
// tokens of the form ":__<url>__:" so the viewer can substitute the image back.
package chat
