package openai

import (
	"encoding/json"
	"strings"

	"github.com/kailas-cloud/imagedex/internal/domain"
)

// ParseReply extracts a summary and keywords from a model reply that wraps
// its answer in prose plus fenced code blocks. Two reply shapes are accepted:
// a single ```json block carrying both "summary" and a "keywords" array, or a
// ```json block with only the summary followed by a second fenced block with
// a "KEYWORDS: a, b, c" line. The array form wins when both are present.
// Anything that fails to parse yields an empty Summary, never an error.
func ParseReply(text string) domain.Summary {
	blocks := fencedBlocks(text)

	at := -1
	for i, b := range blocks {
		if b.tag == "json" || strings.HasPrefix(b.body, "{") {
			at = i
			break
		}
	}
	if at < 0 {
		return domain.Summary{}
	}

	var parsed struct {
		Summary  string   `json:"summary"`
		Keywords []string `json:"keywords"`
	}
	if err := json.Unmarshal([]byte(blocks[at].body), &parsed); err != nil {
		return domain.Summary{}
	}

	summary := strings.TrimSpace(parsed.Summary)
	if summary == "" {
		return domain.Summary{}
	}

	keywords := trimKeywords(parsed.Keywords)
	if len(keywords) == 0 && at+1 < len(blocks) {
		keywords = parseKeywordLine(blocks[at+1].body)
	}

	return domain.Summary{Text: summary, Keywords: keywords}
}

type fence struct {
	tag  string
	body string
}

// fencedBlocks returns every ``` fenced block in text, in order.
func fencedBlocks(text string) []fence {
	var blocks []fence
	for {
		open := strings.Index(text, "```")
		if open < 0 {
			return blocks
		}
		rest := text[open+3:]
		end := strings.Index(rest, "```")
		if end < 0 {
			return blocks
		}

		block := rest[:end]
		tag := ""
		if nl := strings.IndexByte(block, '\n'); nl >= 0 {
			head := strings.TrimSpace(block[:nl])
			if head != "" && !strings.ContainsAny(head, " \t{[") {
				tag = head
				block = block[nl+1:]
			}
		}
		blocks = append(blocks, fence{tag: tag, body: strings.TrimSpace(block)})

		text = rest[end+3:]
	}
}

// parseKeywordLine splits a "KEYWORDS: a, b, c" block into trimmed,
// non-empty entries. Returns nil if the label is absent.
func parseKeywordLine(body string) []string {
	body = strings.TrimSpace(body)
	line, ok := strings.CutPrefix(body, "KEYWORDS:")
	if !ok {
		return nil
	}
	return trimKeywords(strings.Split(line, ","))
}

func trimKeywords(raw []string) []string {
	var out []string
	for _, k := range raw {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}
