package formatter

import (
	"reflect"
	"testing"
)

func TestSections(t *testing.T) {
	content := "Big news!\n\nWe open Friday.\n\n[\"#coffee\", \"#launch\"]\n\n[\"#broken\""

	blocks := Sections(content)
	if len(blocks) != 4 {
		t.Fatalf("expected 4 blocks, got %d: %+v", len(blocks), blocks)
	}
	if blocks[0].Text != "Big news!" || blocks[1].Text != "We open Friday." {
		t.Errorf("unexpected text blocks %+v", blocks[:2])
	}
	if !reflect.DeepEqual(blocks[2].Hashtags, []string{"#coffee", "#launch"}) {
		t.Errorf("unexpected hashtags %v", blocks[2].Hashtags)
	}
	if blocks[3].Text != `["#broken"` || blocks[3].Hashtags != nil {
		t.Errorf("malformed hashtag list should stay text, got %+v", blocks[3])
	}
}

func TestSectionsSkipsBlankParagraphs(t *testing.T) {
	if blocks := Sections("\n\n\n\n  \n\n"); len(blocks) != 0 {
		t.Errorf("expected no blocks, got %+v", blocks)
	}
}

func TestHashtags(t *testing.T) {
	content := "Try the #ColdBrew today #coffee\n\n[\"#coffee\", \"#austin\"]"

	got := Hashtags(content)
	want := []string{"#ColdBrew", "#coffee", "#austin"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Hashtags() = %v, want %v", got, want)
	}
}

func TestGeneratedSections(t *testing.T) {
	sections := GeneratedSections("post", "")
	if len(sections) != 1 || sections[0].Title != "Social Media Post" {
		t.Errorf("unexpected sections %+v", sections)
	}

	sections = GeneratedSections("post", "[Scene 1]")
	if len(sections) != 2 || sections[1].Title != "TikTok Script" {
		t.Errorf("unexpected sections %+v", sections)
	}
}
