package formatter

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Block is one paragraph of generated content. Hashtag lists are decoded into Hashtags.
type Block struct {
	Text     string
	Hashtags []string
}

// ContentSection is a titled piece of generated content.
type ContentSection struct {
	Title   string
	Content string
}

// GeneratedSections pairs the social post and script with their display titles, skipping empty ones.
func GeneratedSections(socialPost, script string) []ContentSection {
	var sections []ContentSection
	if strings.TrimSpace(socialPost) != "" {
		sections = append(sections, ContentSection{Title: "Social Media Post", Content: socialPost})
	}
	if strings.TrimSpace(script) != "" {
		sections = append(sections, ContentSection{Title: "TikTok Script", Content: script})
	}
	return sections
}

// Sections splits content on blank lines. A paragraph holding a JSON array of hashtags becomes a hashtag block;
// one that fails to decode stays text.
func Sections(content string) []Block {
	var blocks []Block
	for _, para := range strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if strings.Contains(para, `["#`) {
			var tags []string
			if err := json.Unmarshal([]byte(para), &tags); err == nil {
				blocks = append(blocks, Block{Hashtags: tags})
				continue
			}
		}
		blocks = append(blocks, Block{Text: para})
	}
	return blocks
}

var hashtagPattern = regexp.MustCompile(`#[\p{L}\p{N}_]+`)

// Hashtags collects every hashtag in content, from hashtag blocks and inline text, without duplicates.
func Hashtags(content string) []string {
	seen := map[string]bool{}
	var tags []string
	add := func(tag string) {
		key := strings.ToLower(tag)
		if tag == "" || seen[key] {
			return
		}
		seen[key] = true
		tags = append(tags, tag)
	}

	for _, block := range Sections(content) {
		for _, tag := range block.Hashtags {
			add(strings.TrimSpace(tag))
		}
		for _, tag := range hashtagPattern.FindAllString(block.Text, -1) {
			add(tag)
		}
	}
	return tags
}
