package contract

import (
	"encoding/hex"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
)

// PlaceholderWidth is the width of a library placeholder in hex bytecode:
// exactly the 40 hex characters of the address that replaces it.
const PlaceholderWidth = 40

// Placeholder returns the bytecode token the compiler emits for an unlinked
// library: "__" followed by the name, right-padded with underscores.
// Names too long for the slot are truncated, as the compiler does.
func Placeholder(name string) string {
	token := "__" + name
	if len(token) > PlaceholderWidth-2 {
		token = token[:PlaceholderWidth-2]
	}
	return token + strings.Repeat("_", PlaceholderWidth-len(token))
}

// UnresolvedLibraries returns the library names whose placeholders are still
// present in bytecode, deduplicated and sorted. Names are reported with every
// underscore removed.
func UnresolvedLibraries(bytecode string) []string {
	var names []string
	for rest := bytecode; ; {
		i := strings.Index(rest, "__")
		if i < 0 {
			break
		}
		end := i + PlaceholderWidth
		if end > len(rest) {
			end = len(rest)
		}
		if name := strings.ReplaceAll(rest[i:end], "_", ""); name != "" {
			names = append(names, name)
		}
		rest = rest[end:]
	}

	names = lo.Uniq(names)
	sort.Strings(names)
	return names
}

// ResolvedBytecode substitutes every linked library's placeholder with its
// address, without the 0x prefix. Placeholders of libraries absent from links
// are left untouched.
func ResolvedBytecode(bytecode string, links map[string]common.Address) string {
	for _, name := range lo.Keys(links) {
		addr := links[name]
		bytecode = strings.ReplaceAll(bytecode, Placeholder(name), hex.EncodeToString(addr.Bytes()))
	}
	return bytecode
}
