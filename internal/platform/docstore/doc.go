// Package docstore implements store.ItemStore as JSON documents in a
// key-value store.
//
// Each user's items live as one JSON list under "gallery_items_<userID>".
// A single "gallery_index" document maps every item ID to its owner, so
// operations addressed only by ID can find the right list. List and index
// are written separately; a failure between the two writes leaves them out
// of step and the store tolerates that on later reads.
package docstore
