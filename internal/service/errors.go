package service

import "errors"

var (
	ErrFollowSelf = errors.New("cannot follow self")

	// 请求引用的对象不存在，在进入缓存逻辑前返回
	ErrNoSuchUser    = errors.New("no such user")
	ErrNoSuchList    = errors.New("no such list")
	ErrNoSuchChannel = errors.New("no such channel")

	// ErrColdStoreUnavailable 权威存储不可用，可重试
	ErrColdStoreUnavailable = errors.New("cold store unavailable")

	ErrInvalidCursor = errors.New("invalid cursor")
)
