package common

import "time"

// TimestampPrecision is the resolution at which note timestamps are stored
// and compared on both sides of the wire.
const TimestampPrecision = time.Millisecond

// UserIDQueryParam carries the owner of a note on REST requests.
const UserIDQueryParam = "user_id"
