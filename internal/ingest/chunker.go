package ingest

import "strings"

// Chunk is one retrievable slice of a source document. Page is the
// 1-based ordinal of the chunk within its document.
type Chunk struct {
	Source      string
	Page        int
	Section     string
	Content     string
	ContentHash string
}

// ChunkDocument splits a document into chunks of roughly size
// characters with the given overlap between consecutive chunks.
// Paragraph boundaries are preserved where possible; a markdown
// heading above a paragraph becomes the chunk's section label.
func ChunkDocument(doc Document, size, overlap int) []Chunk {
	if size <= 0 {
		size = 1400
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	paragraphs := splitParagraphs(doc.Content)
	if len(paragraphs) == 0 {
		return nil
	}

	var (
		chunks  []Chunk
		current strings.Builder
		section string
		// section heading active when the current chunk started
		chunkSection string
		// current holds only overlap carried from the previous chunk
		onlyCarried bool
	)

	flush := func() {
		text := strings.TrimSpace(current.String())
		if text == "" || onlyCarried {
			return
		}
		chunks = append(chunks, Chunk{
			Source:      doc.Source,
			Page:        len(chunks) + 1,
			Section:     chunkSection,
			Content:     text,
			ContentHash: doc.ContentHash,
		})
		current.Reset()
		if overlap > 0 && len(text) > overlap {
			current.WriteString(text[len(text)-overlap:])
			current.WriteString("\n\n")
			onlyCarried = true
		}
		chunkSection = section
	}

	push := func(text string) {
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(text)
		onlyCarried = false
	}

	for _, para := range paragraphs {
		if h, ok := headingText(para); ok {
			section = h
		}
		if current.Len() == 0 {
			chunkSection = section
		}

		// Hard-split paragraphs that alone exceed the chunk size.
		for len(para) > size {
			flush()
			push(para[:size])
			para = para[size:]
			flush()
		}

		if current.Len()+len(para) > size {
			flush()
		}
		if para != "" {
			push(para)
		}
	}
	flush()

	return chunks
}

func splitParagraphs(content string) []string {
	raw := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n\n")
	var out []string
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// headingText returns the text of a markdown heading paragraph.
func headingText(para string) (string, bool) {
	line := strings.SplitN(para, "\n", 2)[0]
	trimmed := strings.TrimLeft(line, "#")
	if trimmed == line || !strings.HasPrefix(trimmed, " ") {
		return "", false
	}
	return strings.TrimSpace(trimmed), true
}
