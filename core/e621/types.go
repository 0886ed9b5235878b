package e621

import "strings"

// Posts is the envelope returned by the post search endpoint.
type Posts struct {
	Posts []Post `json:"posts"`
}

// Post is one record of the tagging backend.
type Post struct {
	ID      int      `json:"id"`
	File    File     `json:"file"`
	Preview Preview  `json:"preview"`
	Sample  Sample   `json:"sample"`
	Score   Score    `json:"score"`
	Tags    Tags     `json:"tags"`
	Flags   Flags    `json:"flags"`
	Rating  string   `json:"rating"`
	Sources []string `json:"sources"`
}

// StickerFileID returns the Telegram file handle carried in the source
// list. By convention the source annotation is three lines joined on
// upload: unique id, file id, uploader link. Slot 1 is the file id;
// records without it cannot be served as inline results.
func (p *Post) StickerFileID() (string, bool) {
	if len(p.Sources) < 2 || p.Sources[1] == "" {
		return "", false
	}
	return p.Sources[1], true
}

// File describes the stored asset.
type File struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Ext    string `json:"ext"`
	Size   int    `json:"size"`
	MD5    string `json:"md5"`
	URL    string `json:"url"`
}

// Preview is the downscaled rendition of the asset.
type Preview struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	URL    string `json:"url"`
}

// Sample is the mid-size rendition of the asset.
type Sample struct {
	Has    bool   `json:"has"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	URL    string `json:"url"`
}

// Score aggregates votes on a post.
type Score struct {
	Up    int `json:"up"`
	Down  int `json:"down"`
	Total int `json:"total"`
}

// Tags partitions a post's tag set by category.
type Tags struct {
	General   []string `json:"general"`
	Species   []string `json:"species"`
	Character []string `json:"character"`
	Copyright []string `json:"copyright"`
	Artist    []string `json:"artist"`
	Lore      []string `json:"lore"`
	Meta      []string `json:"meta"`
}

// Flags carries the moderation state of a post.
type Flags struct {
	Pending bool `json:"pending"`
	Flagged bool `json:"flagged"`
	Deleted bool `json:"deleted"`
}

// UploadRequest describes a new post to create.
type UploadRequest struct {
	DirectURL string `json:"direct_url"`
	TagString string `json:"tag_string"`
	Source    string `json:"source"`
	Rating    string `json:"rating"`
}

// Credential authenticates a request on behalf of a backend account.
type Credential struct {
	Login  string
	APIKey string
}

// EncodeSource builds the newline-joined source annotation stored on
// upload. Order matters, see Post.StickerFileID.
func EncodeSource(uniqueID, fileID, uploaderLink string) string {
	return strings.Join([]string{uniqueID, fileID, uploaderLink}, "\n")
}
