package video

import (
	"net/url"
	"strings"
)

type EmbedType int

const (
	EmbedTypeNone EmbedType = iota
	EmbedTypeYouTube
	EmbedTypeTwitch
	EmbedTypeVideo
	// Anything we don't know how to embed is shown as a plain "watch" link
	EmbedTypeLink
)

type EmbedInfo struct {
	Type EmbedType
	URL  string
}

// GetEmbedInfo works out how a tournament stream link should be shown. Twitch
// refuses to be embedded unless the page host is passed as parent.
func GetEmbedInfo(link *string, parentHost string) EmbedInfo {
	if link == nil || strings.TrimSpace(*link) == "" {
		return EmbedInfo{Type: EmbedTypeNone}
	}

	l := strings.TrimSpace(*link)
	u, err := url.Parse(l)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return EmbedInfo{Type: EmbedTypeNone}
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")

	switch host {
	case "youtube.com", "m.youtube.com":
		if strings.HasPrefix(u.Path, "/embed/") {
			return EmbedInfo{Type: EmbedTypeYouTube, URL: l}
		}
		if id := u.Query().Get("v"); id != "" {
			return EmbedInfo{Type: EmbedTypeYouTube, URL: "https://www.youtube.com/embed/" + id}
		}
		if id, ok := strings.CutPrefix(u.Path, "/live/"); ok && id != "" {
			return EmbedInfo{Type: EmbedTypeYouTube, URL: "https://www.youtube.com/embed/" + id}
		}
	case "youtu.be":
		if id := strings.Trim(u.Path, "/"); id != "" {
			return EmbedInfo{Type: EmbedTypeYouTube, URL: "https://www.youtube.com/embed/" + id}
		}
	case "twitch.tv", "m.twitch.tv":
		channel := strings.Trim(u.Path, "/")
		if channel != "" && !strings.Contains(channel, "/") && parentHost != "" {
			q := url.Values{"channel": {channel}, "parent": {parentHost}}
			return EmbedInfo{Type: EmbedTypeTwitch, URL: "https://player.twitch.tv/?" + q.Encode()}
		}
	}

	lower := strings.ToLower(u.Path)
	for _, ext := range []string{".mp4", ".webm", ".ogg", ".mov"} {
		if strings.HasSuffix(lower, ext) {
			return EmbedInfo{Type: EmbedTypeVideo, URL: l}
		}
	}

	return EmbedInfo{Type: EmbedTypeLink, URL: l}
}
