package timeline

import "github.com/d60-Lab/fanout-timeline/config"

// CacheLimits 各类时间线的缓存条数上限；附件变体取一半
type CacheLimits struct {
	HomeTimeline       int
	LocalUserTimeline  int
	RemoteUserTimeline int
	UserListTimeline   int
	LocalTimeline      int
	ChannelTimeline    int
}

func DefaultCacheLimits() CacheLimits {
	return CacheLimits{
		HomeTimeline:       300,
		LocalUserTimeline:  300,
		RemoteUserTimeline: 100,
		UserListTimeline:   300,
		LocalTimeline:      300,
		ChannelTimeline:    300,
	}
}

func LimitsFromConfig(cfg config.TimelineConfig) CacheLimits {
	return CacheLimits{
		HomeTimeline:       cfg.HomeTimelineCacheMax,
		LocalUserTimeline:  cfg.LocalUserTimelineCacheMax,
		RemoteUserTimeline: cfg.RemoteUserTimelineCacheMax,
		UserListTimeline:   cfg.UserListTimelineCacheMax,
		LocalTimeline:      cfg.LocalTimelineCacheMax,
		ChannelTimeline:    cfg.ChannelTimelineCacheMax,
	}
}

// CapOf 返回 key 的容量
func (l CacheLimits) CapOf(k Key) int {
	var n int
	switch k.Kind {
	case KindHome:
		n = l.HomeTimeline
	case KindUser, KindUserWithReplies, KindUserWithChannel:
		n = l.LocalUserTimeline
		if k.Remote {
			n = l.RemoteUserTimeline
		}
	case KindUserList:
		n = l.UserListTimeline
	case KindLocal, KindLocalWithReplyTo:
		n = l.LocalTimeline
	case KindChannel:
		n = l.ChannelTimeline
	}
	if k.WithFiles() {
		n /= 2
	}
	if n < 1 {
		n = 1
	}
	return n
}
