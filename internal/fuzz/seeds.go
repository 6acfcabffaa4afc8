package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const maxSeedBytes = 64 << 10

var inlineSeeds = []string{
	"",
	"[[relation]]\nsource = \"string\"\ntarget = \"string\"\n",
	"[types.L]\nkind = \"object\"\nprops = { next = { kind = \"union\", members = [\"L\", \"null\"] } }\n\n[[relation]]\nsource = \"L\"\ntarget = \"L\"\n",
	"[types.F]\nparams = [\"T\"]\nkind = \"conditional\"\ncheck = \"T\"\nextends = \"string\"\nthen = \"'s'\"\nelse = \"'n'\"\n\n[[evaluate]]\ntype = { kind = \"app\", base = \"F\", args = [\"number\"] }\nexpect = \"'n'\"\n",
	"[[infer]]\ntype_params = [\"T\"]\nparams = [\"T[]\"]\nargs = [\"number[]\"]\nexpect = [\"number\"]\n",
	"[[property]]\nobject = { kind = \"object\", props = { a = \"number\" } }\nname = \"a\"\nexpect = \"number\"\n",
}

func addCorpusSeeds(f *testing.F) {
	addTestdataSeeds(f)
	for _, seed := range inlineSeeds {
		f.Add([]byte(seed))
	}
}

func addTestdataSeeds(f *testing.F) {
	root := filepath.Join("..", "scenario", "testdata")
	if _, err := os.Stat(root); err != nil {
		return
	}
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() || filepath.Ext(path) != ".toml" {
			return nil
		}
		// #nosec G304 -- path comes from repository testdata walk
		src, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		f.Add(clampSeed(src))
		return nil
	})
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}

// truncateForLog shortens input for failure messages.
func truncateForLog(input []byte, maxLen int) []byte {
	if len(input) <= maxLen {
		return input
	}
	return append(input[:maxLen:maxLen], "..."...)
}
