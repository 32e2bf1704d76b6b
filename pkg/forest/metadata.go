package forest

// TagUnread marks a node that has been created but not yet navigated to. The
// store never applies or removes it on its own: tagging is decided by the
// caller at creation time and cleared by the caller on navigation.
const TagUnread = "unread"

// Metadata is the mutable annotation attached to a node. Tags behave as a set;
// Extra is a bounded extension bag for outer layers that need to stash
// additional named fields without the core interpreting them.
type Metadata struct {
	Tags  []string               `json:"tags,omitempty"`
	Extra map[string]interface{} `json:"extra,omitempty"`
}

func (md Metadata) HasTag(tag string) bool {
	for _, t := range md.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// WithTag returns a copy of the metadata with tag present exactly once.
func (md Metadata) WithTag(tag string) Metadata {
	if md.HasTag(tag) {
		return md.clone()
	}
	ret := md.clone()
	ret.Tags = append(ret.Tags, tag)
	return ret
}

// WithoutTag returns a copy of the metadata with every occurrence of tag
// removed.
func (md Metadata) WithoutTag(tag string) Metadata {
	ret := md.clone()
	if len(ret.Tags) == 0 {
		return ret
	}
	filtered := make([]string, 0, len(ret.Tags))
	for _, t := range ret.Tags {
		if t == tag {
			continue
		}
		filtered = append(filtered, t)
	}
	if len(filtered) == 0 {
		filtered = nil
	}
	ret.Tags = filtered
	return ret
}

func (md Metadata) clone() Metadata {
	ret := Metadata{}
	if len(md.Tags) > 0 {
		ret.Tags = append([]string(nil), md.Tags...)
	}
	if len(md.Extra) > 0 {
		ret.Extra = make(map[string]interface{}, len(md.Extra))
		for k, v := range md.Extra {
			ret.Extra[k] = v
		}
	}
	return ret
}
