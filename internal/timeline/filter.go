package timeline

import "github.com/d60-Lab/fanout-timeline/internal/model"

// Set 字符串集合，nil 可直接查询
type Set map[string]struct{}

func NewSet(items ...string) Set {
	s := make(Set, len(items))
	for _, it := range items {
		s[it] = struct{}{}
	}
	return s
}

func (s Set) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Slice 无序导出，用于缓存序列化
func (s Set) Slice() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	return out
}

// Relations 观看者的社交关系集合（每次请求取一次）
type Relations struct {
	Muted          Set // 我屏蔽的人
	RenoteMuted    Set // 我屏蔽了其转发的人
	BlockedBy      Set // 拉黑我的人
	MutedInstances Set // 我屏蔽的实例
	Following      Set // 我关注的人
}

// Flags 请求级过滤开关
type Flags struct {
	WithFiles             bool
	WithRenotes           bool
	IncludeMyRenotes      bool
	IncludeRenotedMyNotes bool
	IncludeLocalRenotes   bool
	ExcludeReplies        bool
	ExcludePureRenotes    bool
}

// DefaultFlags 与接口默认值一致
func DefaultFlags() Flags {
	return Flags{WithRenotes: true, IncludeMyRenotes: true, IncludeRenotedMyNotes: true, IncludeLocalRenotes: true}
}

// Predicate 一个具名过滤条件，Keep 返回 false 表示丢弃。
// Social 条件对观看者本人发的帖子不生效。
type Predicate struct {
	Name   string
	Social bool
	Keep   func(p *model.Post) bool
}

// Pipeline 按顺序短路求值的过滤链
type Pipeline struct {
	viewerID   string
	predicates []Predicate
}

func NewPipeline(viewerID string, predicates ...Predicate) *Pipeline {
	return &Pipeline{viewerID: viewerID, predicates: predicates}
}

// Keep 所有条件都通过才保留
func (pl *Pipeline) Keep(p *model.Post) bool {
	_, ok := pl.Rejected(p)
	return !ok
}

// Rejected 返回第一个拒绝该帖子的条件名
func (pl *Pipeline) Rejected(p *model.Post) (string, bool) {
	self := pl.viewerID != "" && p.UserID == pl.viewerID
	for _, pr := range pl.predicates {
		if pr.Social && self {
			continue
		}
		if !pr.Keep(p) {
			return pr.Name, true
		}
	}
	return "", false
}

// Names 条件顺序，便于日志与测试
func (pl *Pipeline) Names() []string {
	out := make([]string, len(pl.predicates))
	for i, pr := range pl.predicates {
		out[i] = pr.Name
	}
	return out
}

func (pl *Pipeline) Len() int { return len(pl.predicates) }

// ---- 帖子结构判断 ----

// IsUserRelated 帖子作者、被回复者、被转发者之一在集合里。
// ignoreAuthor 时不看作者本人。
func IsUserRelated(p *model.Post, ids Set, ignoreAuthor bool) bool {
	if len(ids) == 0 {
		return false
	}
	if !ignoreAuthor && ids.Has(p.UserID) {
		return true
	}
	if p.ReplyUserID != nil && *p.ReplyUserID != p.UserID && ids.Has(*p.ReplyUserID) {
		return true
	}
	if p.RenoteUserID != nil && *p.RenoteUserID != p.UserID && ids.Has(*p.RenoteUserID) {
		return true
	}
	return false
}

// IsPureRenote 没有正文、附件、投票的转发
func IsPureRenote(p *model.Post) bool {
	return p.RenoteID != nil && p.Text == nil && len(p.FileIDs) == 0 && !p.HasPoll
}

// IsReply 回复他人（不含自回复与回复观看者）
func IsReply(p *model.Post, viewerID string) bool {
	if p.ReplyID == nil {
		return false
	}
	if p.ReplyUserID != nil && (*p.ReplyUserID == p.UserID || (viewerID != "" && *p.ReplyUserID == viewerID)) {
		return false
	}
	return true
}

// IsInstanceMuted 帖子本身或其回复/转发对象来自被屏蔽实例
func IsInstanceMuted(p *model.Post, hosts Set) bool {
	if len(hosts) == 0 {
		return false
	}
	for _, h := range []*string{p.UserHost, p.ReplyUserHost, p.RenoteUserHost} {
		if h != nil && hosts.Has(*h) {
			return true
		}
	}
	return false
}

// ---- 社交条件 ----

func Block(blockedBy Set, ignoreAuthor bool) Predicate {
	return Predicate{Name: "block", Social: true, Keep: func(p *model.Post) bool {
		return !IsUserRelated(p, blockedBy, ignoreAuthor)
	}}
}

func Mute(muted Set, ignoreAuthor bool) Predicate {
	return Predicate{Name: "mute", Social: true, Keep: func(p *model.Post) bool {
		return !IsUserRelated(p, muted, ignoreAuthor)
	}}
}

func RenoteMute(renoteMuted Set, ignoreAuthor bool) Predicate {
	return Predicate{Name: "renote-mute", Social: true, Keep: func(p *model.Post) bool {
		return !(IsPureRenote(p) && IsUserRelated(p, renoteMuted, ignoreAuthor))
	}}
}

func InstanceMute(hosts Set) Predicate {
	return Predicate{Name: "instance-mute", Social: true, Keep: func(p *model.Post) bool {
		return !IsInstanceMuted(p, hosts)
	}}
}

// ---- 结构条件 ----

func FilesOnly() Predicate {
	return Predicate{Name: "files-only", Keep: func(p *model.Post) bool { return len(p.FileIDs) > 0 }}
}

func ExcludeReplies(viewerID string) Predicate {
	return Predicate{Name: "exclude-replies", Keep: func(p *model.Post) bool { return !IsReply(p, viewerID) }}
}

func ExcludePureRenotes() Predicate {
	return Predicate{Name: "exclude-pure-renotes", Keep: func(p *model.Post) bool { return !IsPureRenote(p) }}
}

// ExcludeMyRenotes 去掉观看者自己的纯转发
func ExcludeMyRenotes(viewerID string) Predicate {
	return Predicate{Name: "exclude-my-renotes", Keep: func(p *model.Post) bool {
		return !(p.UserID == viewerID && IsPureRenote(p))
	}}
}

// ExcludeRenotesOfMe 去掉别人对观看者帖子的纯转发
func ExcludeRenotesOfMe(viewerID string) Predicate {
	return Predicate{Name: "exclude-renotes-of-me", Keep: func(p *model.Post) bool {
		return !(p.RenoteUserID != nil && *p.RenoteUserID == viewerID && IsPureRenote(p))
	}}
}

// ExcludeLocalRenotes 去掉转发本地用户帖子的纯转发
func ExcludeLocalRenotes() Predicate {
	return Predicate{Name: "exclude-local-renotes", Keep: func(p *model.Post) bool {
		return !(p.RenoteID != nil && p.RenoteUserHost == nil && IsPureRenote(p))
	}}
}

// ReplyVisibility 回复的是仅粉丝可见的帖子时，要求观看者关注了原帖作者
func ReplyVisibility(viewerID string, following Set) Predicate {
	return Predicate{Name: "reply-visibility", Keep: func(p *model.Post) bool {
		if p.Reply == nil || p.Reply.Visibility != model.VisibilityFollowers {
			return true
		}
		return p.Reply.UserID == viewerID || following.Has(p.Reply.UserID)
	}}
}

// Visibility specified 只给作者与指定用户，followers 只给作者与粉丝
func Visibility(viewerID string, following Set) Predicate {
	return Predicate{Name: "visibility", Keep: func(p *model.Post) bool {
		switch p.Visibility {
		case model.VisibilitySpecified:
			if viewerID == "" {
				return false
			}
			if p.UserID == viewerID {
				return true
			}
			for _, id := range p.VisibleUserIDs {
				if id == viewerID {
					return true
				}
			}
			return false
		case model.VisibilityFollowers:
			if viewerID == "" {
				return false
			}
			return p.UserID == viewerID || following.Has(p.UserID)
		}
		return true
	}}
}

// SensitiveChannel 敏感频道的帖子只给作者本人看
func SensitiveChannel(viewerID string) Predicate {
	return Predicate{Name: "sensitive-channel", Keep: func(p *model.Post) bool {
		if p.Channel == nil || !p.Channel.IsSensitive {
			return true
		}
		return viewerID != "" && p.UserID == viewerID
	}}
}

// WithoutRenotes withRenotes=false 时去掉纯转发
func WithoutRenotes() Predicate {
	p := ExcludePureRenotes()
	p.Name = "without-renotes"
	return p
}

// Social 观看者关系集合对应的社交条件，顺序为 block, mute, renote-mute, instance-mute。
// ignoreAuthorFromMute 用于浏览某个用户自己的时间线。
func Social(rel *Relations, ignoreAuthorFromMute bool) []Predicate {
	if rel == nil {
		return nil
	}
	return []Predicate{
		Block(rel.BlockedBy, false),
		Mute(rel.Muted, ignoreAuthorFromMute),
		RenoteMute(rel.RenoteMuted, ignoreAuthorFromMute),
		InstanceMute(rel.MutedInstances),
	}
}

// Structural 请求开关对应的结构条件
func Structural(viewerID string, f Flags) []Predicate {
	var out []Predicate
	if f.WithFiles {
		out = append(out, FilesOnly())
	}
	if f.ExcludeReplies {
		out = append(out, ExcludeReplies(viewerID))
	}
	if f.ExcludePureRenotes {
		out = append(out, ExcludePureRenotes())
	} else if !f.WithRenotes {
		out = append(out, WithoutRenotes())
	}
	if viewerID != "" {
		if !f.IncludeMyRenotes {
			out = append(out, ExcludeMyRenotes(viewerID))
		}
		if !f.IncludeRenotedMyNotes {
			out = append(out, ExcludeRenotesOfMe(viewerID))
		}
	}
	if !f.IncludeLocalRenotes {
		out = append(out, ExcludeLocalRenotes())
	}
	return out
}

// Build 组装请求级过滤链：社交条件在前，其次请求开关，最后是调用方追加的条件
func Build(viewerID string, rel *Relations, f Flags, ignoreAuthorFromMute bool, extra ...Predicate) *Pipeline {
	preds := Social(rel, ignoreAuthorFromMute)
	preds = append(preds, Structural(viewerID, f)...)
	preds = append(preds, extra...)
	return NewPipeline(viewerID, preds...)
}
