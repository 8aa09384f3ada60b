package files

import (
	"fmt"
	"strings"
)

const (
	blockStartFmt = "# >>> provision %s >>>"
	blockEndFmt   = "# <<< provision %s <<<"
)

// ReadManagedBlock returns the text between the markers of the named block,
// or "" when the block is absent.
func ReadManagedBlock(content, name string) string {
	start := fmt.Sprintf(blockStartFmt, name)
	end := fmt.Sprintf(blockEndFmt, name)

	startIdx := strings.Index(content, start)
	if startIdx == -1 {
		return ""
	}
	endIdx := strings.Index(content, end)
	if endIdx == -1 {
		return ""
	}

	blockStart := startIdx + len(start)
	if blockStart < len(content) && content[blockStart] == '\n' {
		blockStart++
	}
	if blockStart >= endIdx {
		return ""
	}
	return content[blockStart:endIdx]
}

// WriteManagedBlock replaces the named block in content, or appends it when
// missing. A start marker without an end marker is replaced up to EOF.
func WriteManagedBlock(content, name, block string) string {
	start := fmt.Sprintf(blockStartFmt, name)
	end := fmt.Sprintf(blockEndFmt, name)

	managed := start + "\n" + block + end + "\n"

	startIdx := strings.Index(content, start)
	if startIdx == -1 {
		if content != "" && !strings.HasSuffix(content, "\n") {
			content += "\n"
		}
		if content == "" {
			return managed
		}
		return content + "\n" + managed
	}

	endIdx := strings.Index(content, end)
	if endIdx == -1 {
		return content[:startIdx] + managed
	}

	afterEnd := endIdx + len(end)
	if afterEnd < len(content) && content[afterEnd] == '\n' {
		afterEnd++
	}
	return content[:startIdx] + managed + content[afterEnd:]
}

// normalizeBlock makes block end with exactly one newline so that reads
// compare equal to what was written.
func normalizeBlock(block string) string {
	return strings.TrimRight(block, "\n") + "\n"
}
