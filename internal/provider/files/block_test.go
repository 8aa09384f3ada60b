package files

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadManagedBlock(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "found",
			content: "# some config\n# >>> provision env >>>\nexport EDITOR=\"nvim\"\n# <<< provision env <<<\n# more",
			want:    "export EDITOR=\"nvim\"\n",
		},
		{name: "missing", content: "# some config\n"},
		{name: "empty block", content: "# >>> provision env >>>\n# <<< provision env <<<"},
		{name: "no end marker", content: "# >>> provision env >>>\nexport A=1\n"},
		{
			name:    "other block",
			content: "# >>> provision path >>>\nexport PATH=x\n# <<< provision path <<<\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ReadManagedBlock(tt.content, "env"))
		})
	}
}

func TestWriteManagedBlock(t *testing.T) {
	t.Parallel()

	block := "export NEW=1\n"

	t.Run("append", func(t *testing.T) {
		t.Parallel()
		got := WriteManagedBlock("# existing", "env", block)
		assert.Equal(t, "# existing\n\n# >>> provision env >>>\nexport NEW=1\n# <<< provision env <<<\n", got)
	})

	t.Run("replace", func(t *testing.T) {
		t.Parallel()
		content := "# before\n# >>> provision env >>>\nexport OLD=1\n# <<< provision env <<<\n# after\n"
		got := WriteManagedBlock(content, "env", block)
		assert.Equal(t, "# before\n# >>> provision env >>>\nexport NEW=1\n# <<< provision env <<<\n# after\n", got)
	})

	t.Run("unterminated", func(t *testing.T) {
		t.Parallel()
		got := WriteManagedBlock("# before\n# >>> provision env >>>\nexport OLD=1\n", "env", block)
		assert.Equal(t, "# before\n# >>> provision env >>>\nexport NEW=1\n# <<< provision env <<<\n", got)
	})

	t.Run("empty file", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "# >>> provision env >>>\nexport NEW=1\n# <<< provision env <<<\n", WriteManagedBlock("", "env", block))
	})

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, block, ReadManagedBlock(WriteManagedBlock("x\n", "env", block), "env"))
	})
}
