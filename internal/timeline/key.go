package timeline

import "fmt"

// Kind 时间线种类
type Kind int

const (
	KindHome Kind = iota + 1
	KindUser
	KindUserWithReplies
	KindUserWithChannel
	KindUserList
	KindLocalWithReplyTo
	KindLocal
	KindChannel
)

// Variant 普通 / 仅附件
type Variant int

const (
	VariantPlain Variant = iota
	VariantFiles
)

type kindInfo struct {
	name        string
	filesName   string // 为空表示没有附件变体
	scoped      bool
	rebuildable bool
	refreshTTL  bool
}

var kinds = map[Kind]kindInfo{
	KindHome:             {name: "homeTimeline", filesName: "homeTimelineWithFiles", scoped: true, rebuildable: true, refreshTTL: true},
	KindUser:             {name: "userTimeline", filesName: "userTimelineWithFiles", scoped: true, rebuildable: true, refreshTTL: true},
	KindUserWithReplies:  {name: "userTimelineWithReplies", scoped: true, rebuildable: true, refreshTTL: true},
	KindUserWithChannel:  {name: "userTimelineWithChannel", scoped: true, rebuildable: true, refreshTTL: true},
	KindUserList:         {name: "userListTimeline", filesName: "userListTimelineWithFiles", scoped: true, rebuildable: true, refreshTTL: true},
	KindLocalWithReplyTo: {name: "localTimelineWithReplyTo", scoped: true, refreshTTL: true},
	KindLocal:            {name: "localTimeline", filesName: "localTimelineWithFiles"},
	KindChannel:          {name: "channelTimeline", scoped: true},
}

func (k Kind) String() string {
	if info, ok := kinds[k]; ok {
		return info.name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Key 一条缓存时间线。Remote 只影响用户时间线的容量，不参与 key 字符串。
type Key struct {
	Kind    Kind
	ScopeID string
	Variant Variant
	Remote  bool
}

func variantOf(withFiles bool) Variant {
	if withFiles {
		return VariantFiles
	}
	return VariantPlain
}

// Home 某用户的首页时间线
func Home(userID string, withFiles bool) Key {
	return Key{Kind: KindHome, ScopeID: userID, Variant: variantOf(withFiles)}
}

// User 某用户自己发的帖子
func User(userID string, remote, withFiles bool) Key {
	return Key{Kind: KindUser, ScopeID: userID, Variant: variantOf(withFiles), Remote: remote}
}

func UserWithReplies(userID string, remote bool) Key {
	return Key{Kind: KindUserWithReplies, ScopeID: userID, Remote: remote}
}

func UserWithChannel(userID string, remote bool) Key {
	return Key{Kind: KindUserWithChannel, ScopeID: userID, Remote: remote}
}

func UserList(listID string, withFiles bool) Key {
	return Key{Kind: KindUserList, ScopeID: listID, Variant: variantOf(withFiles)}
}

// LocalWithReplyTo 本地时间线里回复给某用户的帖子
func LocalWithReplyTo(userID string) Key {
	return Key{Kind: KindLocalWithReplyTo, ScopeID: userID}
}

func Local(withFiles bool) Key {
	return Key{Kind: KindLocal, Variant: variantOf(withFiles)}
}

func Channel(channelID string) Key {
	return Key{Kind: KindChannel, ScopeID: channelID}
}

// String 存储层使用的 key，如 homeTimelineWithFiles:<userId>
func (k Key) String() string {
	info, ok := kinds[k.Kind]
	if !ok {
		return k.Kind.String()
	}
	name := info.name
	if k.Variant == VariantFiles && info.filesName != "" {
		name = info.filesName
	}
	if !info.scoped {
		return name
	}
	return name + ":" + k.ScopeID
}

// WithFiles 是否为仅附件变体
func (k Key) WithFiles() bool {
	return k.Variant == VariantFiles && kinds[k.Kind].filesName != ""
}

// Rebuildable 未初始化时是否可以从冷存储重建
func (k Key) Rebuildable() bool { return kinds[k.Kind].rebuildable }

// RefreshTTL 读取后是否续期
func (k Key) RefreshTTL() bool { return kinds[k.Kind].refreshTTL }

// Strings 批量转换为存储层 key
func Strings(keys []Key) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.String()
	}
	return out
}
