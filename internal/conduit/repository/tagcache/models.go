package tagcache

import "errors"

var ErrCacheMiss = errors.New("tags are not cached")
