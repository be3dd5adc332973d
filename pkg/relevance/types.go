// ABOUTME: Content item type for relevance ranking
// ABOUTME: Defines the metadata the scorer and selector read
package relevance

// Item is one entry of the video catalog. Items are immutable once
// loaded; the ranking code only reads them.
type Item struct {
	ID          string
	Title       string
	Description string
	MediaURL    string
}
