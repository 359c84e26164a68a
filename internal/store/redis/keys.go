package redis

const (
	// KeyPrefixBookmark is the prefix for bookmark row keys
	KeyPrefixBookmark = "smartmark:bookmark:"
	// KeyPrefixOwnerBookmarks is the prefix for the per-owner sorted sets
	KeyPrefixOwnerBookmarks = "smartmark:bookmarks:owner:"
	// KeyPrefixSession is the prefix for session records
	KeyPrefixSession = "smartmark:session:"
	// KeyPrefixChanges is the prefix for change feed channels
	KeyPrefixChanges = "smartmark:changes:"
)

// BookmarkKey returns the Redis key for a bookmark row
func BookmarkKey(id string) string {
	return KeyPrefixBookmark + id
}

// OwnerBookmarksKey returns the sorted set indexing the bookmarks of an owner
func OwnerBookmarksKey(ownerID string) string {
	return KeyPrefixOwnerBookmarks + ownerID
}

// SessionKey returns the Redis key for a session token
func SessionKey(token string) string {
	return KeyPrefixSession + token
}

// ChangesChannel returns the pub/sub channel for a collection
func ChangesChannel(collection string) string {
	return KeyPrefixChanges + collection
}
