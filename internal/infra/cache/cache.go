package cache

import "errors"

// ErrCacheMiss はキーが無いとき
var ErrCacheMiss = errors.New("cache miss")
